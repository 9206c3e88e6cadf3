package persistence

// Repository is the base for repositories reading and writing entities through a Connector
//
// embed it in concrete repositories:
//
//	type UserRepository struct {
//		persistence.Repository
//		mapper *persistence.StructMapper[User]
//	}
type Repository struct {
	connector  *Connector
	translator ErrorTranslator
}

// NewRepository creates a Repository using the given connector
func NewRepository(connector *Connector) Repository {
	return Repository{connector: connector, translator: defaultErrorTranslator}
}

// WithErrorTranslator returns a copy of the repository that passes errors through the given translator
func (r Repository) WithErrorTranslator(translator ErrorTranslator) Repository {
	if translator == nil {
		translator = defaultErrorTranslator
	}
	r.translator = translator
	return r
}

// Connector returns the connector the repository uses
func (r Repository) Connector() *Connector {
	return r.connector
}

// Translate passes err through the repository's ErrorTranslator
//
// nil errors are never translated
func (r Repository) Translate(err error) error {
	if r.translator == nil {
		return err
	}
	return translateError(err, r.translator)
}
