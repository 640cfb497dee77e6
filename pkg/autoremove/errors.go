package autoremove

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrModelNotFound matches every ModelNotFoundError
var ErrModelNotFound = errors.New("model not found")

// ModelNotFoundError reports that an entity named by the trigger no longer
// exists. Nothing was changed.
type ModelNotFoundError struct {
	Model string
	ID    int64
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Model, e.ID)
}

// Is lets errors.Is(err, ErrModelNotFound) match
func (e *ModelNotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}

// ContractError reports invalid handler input. No reads or writes happen.
type ContractError struct {
	Event Event
	Err   error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("invalid %s input: %v", e.Event, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// Fields returns the names of the fields that failed validation
func (e *ContractError) Fields() []string {
	var verrs validator.ValidationErrors
	if !errors.As(e.Err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
