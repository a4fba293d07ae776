package races

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/padraicbc/rungroop/models"
)

// Form is the submitted create/edit race form.
type Form struct {
	Title       string          `form:"title" validate:"required,max=200"`
	Description string          `form:"description" validate:"required,max=4000"`
	Category    models.Category `form:"category" validate:"required,oneof=Marathon Ultra FiveK TenK HalfMarathon"`
	Street      string          `form:"street" validate:"required,max=200"`
	City        string          `form:"city" validate:"required,max=100"`
	State       string          `form:"state" validate:"required,max=100"`
}

// FormFromRace pre-fills a form from a stored race.
func FormFromRace(r *models.Race) Form {
	return Form{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Street:      r.Address.Street,
		City:        r.Address.City,
		State:       r.Address.State,
	}
}

func (f *Form) trim() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Category = models.Category(strings.TrimSpace(string(f.Category)))
	f.Street = strings.TrimSpace(f.Street)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
}

func (f Form) address() models.Address {
	return models.Address{Street: f.Street, City: f.City, State: f.State}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	return v
}

// check validates the form and the presence of an image.
func (f *Form) check(imageMissing bool) error {
	f.trim()

	fields := map[string]string{}
	if err := validate.Struct(f); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = message(fe)
		}
	}
	if imageMissing {
		fields["image"] = "Image is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func message(fe validator.FieldError) string {
	name := strings.ToUpper(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "oneof":
		return name + " is not a known race category"
	default:
		return name + " is invalid"
	}
}
