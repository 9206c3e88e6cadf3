package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultErrorTranslator(t *testing.T) {
	require.NoError(t, defaultErrorTranslator.Translate(nil))
	require.Error(t, defaultErrorTranslator.Translate(errors.New("")))
}

var errDuplicate = errors.New("duplicate!!!")

type testErrorTranslator struct{}

var _ ErrorTranslator = &testErrorTranslator{}

func (t testErrorTranslator) Translate(err error) error {
	if CodeOf(err) == 1062 {
		return errDuplicate
	}
	return err
}

func TestTranslateError(t *testing.T) {
	require.NoError(t, translateError(nil, testErrorTranslator{}))
	err := translateError(newError(ErrStatementExecutionFailed, driverError("23000", 1062, "Duplicate entry")), testErrorTranslator{})
	require.Equal(t, errDuplicate, err)
	other := errors.New("other")
	require.Equal(t, other, translateError(other, testErrorTranslator{}))
}

func TestErrorTranslatorFunc(t *testing.T) {
	fn := ErrorTranslatorFunc(func(err error) error {
		return errors.Join(errDuplicate, err)
	})
	err := fn.Translate(errors.New("cause"))
	require.ErrorIs(t, err, errDuplicate)
}
