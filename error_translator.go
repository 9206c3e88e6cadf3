package persistence

// ErrorTranslator is an option that can be passed to Repository.WithErrorTranslator
//
// and is called with any errors so that they can be translated (or wrapped)
//
// Is particularly useful for translating persistence errors into your own domain errors
type ErrorTranslator interface {
	// Translate translates the passed error
	Translate(error) error
}

// ErrorTranslatorFunc is a func that implements ErrorTranslator
type ErrorTranslatorFunc func(error) error

var _ ErrorTranslator = ErrorTranslatorFunc(nil)

func (f ErrorTranslatorFunc) Translate(err error) error {
	return f(err)
}

func translateError(err error, translator ErrorTranslator) error {
	if err == nil {
		return nil
	}
	return translator.Translate(err)
}

var defaultErrorTranslator ErrorTranslator = &defErrorTranslator{}

type defErrorTranslator struct{}

func (e *defErrorTranslator) Translate(err error) error {
	return err
}
