package werrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isgasho/fce/internal/werrors"
)

func TestConstructorsWrapTheirSentinel(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind werrors.Kind
	}{
		{"runtime compile", werrors.RuntimeCompile("bad magic"), werrors.KindRuntimeCompile},
		{"runtime creation", werrors.RuntimeCreation("oom"), werrors.KindRuntimeCreation},
		{"runtime resolve", werrors.RuntimeResolve("missing import"), werrors.KindRuntimeResolve},
		{"runtime invoke", werrors.RuntimeInvoke("trap"), werrors.KindRuntimeInvoke},
		{"prepare failed", werrors.PrepareFailed("bad ceiling"), werrors.KindPrepareFailed},
		{"no interface section", werrors.NoInterfaceSection("mod"), werrors.KindNoInterfaceSection},
		{"multiple interface sections", werrors.MultipleInterfaceSections("mod"), werrors.KindMultipleInterfaceSections},
		{"trailing bytes", werrors.InterfaceSectionTrailingBytes("mod"), werrors.KindInterfaceSectionTrailingBytes},
		{"parse failed", werrors.InterfaceParseFailed("truncated"), werrors.KindInterfaceParseFailed},
		{"incorrect interface", werrors.IncorrectInterface("arity"), werrors.KindIncorrectInterface},
		{"non unique name", werrors.NonUniqueModuleName("mod"), werrors.KindNonUniqueModuleName},
		{"no such module", werrors.NoSuchModule("mod"), werrors.KindNoSuchModule},
		{"no such function", werrors.NoSuchFunction("fn"), werrors.KindNoSuchFunction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, werrors.Is(tc.err, tc.kind))
			for _, other := range cases {
				if other.kind != tc.kind {
					assert.False(t, werrors.Is(tc.err, other.kind), "should not match kind %v", other.kind)
				}
			}
		})
	}
}

func TestErrorMessageIncludesDetail(t *testing.T) {
	err := werrors.NoSuchModule("payments")
	assert.Contains(t, err.Error(), "no such module")
	assert.Contains(t, err.Error(), "payments")
}

func TestIsReturnsFalseForForeignErrors(t *testing.T) {
	assert.False(t, werrors.Is(errors.New("boom"), werrors.KindNoSuchModule))
	assert.False(t, werrors.Is(nil, werrors.KindNoSuchModule))
}

func TestUnwrapReachesSentinel(t *testing.T) {
	err := werrors.NoSuchFunction("run")
	assert.ErrorIs(t, err, werrors.ErrNoSuchFunction)
}
