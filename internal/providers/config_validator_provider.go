package providers

import (
	"github.com/gookit/validate"

	"qrd/internal/structures"
)

// CnfValidator checks the loaded config against the declarative rules on the
// structures.Config tags before the app starts wiring anything.
type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}
	return nil
}
