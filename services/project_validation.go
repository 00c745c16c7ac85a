package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/models"
)

// ImageUpload is a file submitted in the image_url form field.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// ProjectInput is what an operator submits from the create and edit forms.
type ProjectInput struct {
	Name          string       `json:"name" validate:"required,max=255"`
	Description   string       `json:"description" validate:"required"`
	ProjectURL    string       `json:"project_url" validate:"required,url"`
	TypeID        *uint        `json:"type_id"`
	TechnologyIDs []uint       `json:"technologies"`
	Image         *ImageUpload `json:"image_url" validate:"-"`
}

type ValidatedImage struct {
	Data        []byte
	ContentType string
}

// ValidatedProject is a ProjectInput that passed every rule, trimmed and with
// duplicate technology ids removed.
type ValidatedProject struct {
	Name          string
	Description   string
	ProjectURL    string
	TypeID        *uint
	TechnologyIDs []uint
	Image         *ValidatedImage
}

func (v *ValidatedProject) apply(p *models.Project) {
	p.Name = v.Name
	p.Description = v.Description
	p.ProjectURL = v.ProjectURL
	p.TypeID = v.TypeID
}

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/bmp"}

// ProjectValidator checks submitted project data against the stores.
type ProjectValidator struct {
	validate     *validator.Validate
	projects     ProjectStore
	technologies TechnologyStore
	types        TypeStore
}

func NewProjectValidator(projects ProjectStore, technologies TechnologyStore, types TypeStore) *ProjectValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ProjectValidator{
		validate:     v,
		projects:     projects,
		technologies: technologies,
		types:        types,
	}
}

// Validate collects every field error into one *errs.ValidationError.
// excludeID is the project being edited, or 0 on create. Store failures are
// returned as they are.
func (pv *ProjectValidator) Validate(ctx context.Context, in ProjectInput, excludeID uint) (*ValidatedProject, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ProjectURL = strings.TrimSpace(in.ProjectURL)

	verr := &errs.ValidationError{}

	if err := pv.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validate project input: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), ruleMessage(fe))
		}
	}

	out := &ValidatedProject{
		Name:          in.Name,
		Description:   in.Description,
		ProjectURL:    in.ProjectURL,
		TypeID:        in.TypeID,
		TechnologyIDs: uniqueIDs(in.TechnologyIDs),
	}

	if in.Image != nil {
		image, msg := checkImage(in.Image)
		if msg != "" {
			verr.Add("image_url", msg)
		}
		out.Image = image
	}

	if !verr.Has("name") {
		taken, err := pv.projects.NameTaken(ctx, in.Name, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("name", "The name has already been taken.")
		}
	}

	if in.TypeID != nil {
		ok, err := pv.types.Exists(ctx, *in.TypeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			verr.Add("type_id", "The selected type id is invalid.")
		}
	}

	if len(out.TechnologyIDs) > 0 {
		missing, err := pv.technologies.MissingIDs(ctx, out.TechnologyIDs)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			verr.Add("technologies", "The selected technologies is invalid.")
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func checkImage(upload *ImageUpload) (*ValidatedImage, string) {
	if len(upload.Data) == 0 {
		return nil, "The image url failed to upload."
	}
	mtype := mimetype.Detect(upload.Data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return nil, "The image url field must be a file of type: jpg, jpeg, bmp, png."
	}
	return &ValidatedImage{Data: upload.Data, ContentType: mtype.String()}, ""
}

func ruleMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", label)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}

func uniqueIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
