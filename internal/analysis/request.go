package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"skillgap/internal/ai"
	"skillgap/internal/errors"
	"skillgap/internal/roles"
)

// MinJobDescriptionLength is the shortest accepted job description, in characters.
const MinJobDescriptionLength = 60

// User-facing validation messages
const (
	MsgMissingCV           = "Please upload your CV."
	MsgMissingRole         = "Please select or enter a target role."
	MsgJobDescriptionShort = "Please paste the full job description."
)

// Request is one analysis job. Either CVText or CVFileName with CVContent
// supplies the CV.
type Request struct {
	CVText     string `json:"cv_text,omitempty"`
	CVFileName string `json:"cv_file_name,omitempty"`
	CVContent  []byte `json:"cv_content,omitempty"`

	Role       string `json:"role,omitempty"`
	CustomRole string `json:"custom_role,omitempty"`

	UseJobDescription bool   `json:"use_job_description"`
	JobDescription    string `json:"job_description,omitempty"`

	UseLLM             bool   `json:"use_llm"`
	OutputStyle        string `json:"output_style,omitempty"`
	SourcesOnly        bool   `json:"sources_only"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// NewRequest returns a request with the interactive defaults: narrative on,
// professional style, sources-only grounding.
func NewRequest() Request {
	return Request{
		UseLLM:      true,
		OutputStyle: ai.StyleProfessional,
		SourcesOnly: true,
	}
}

// TargetRole resolves the role the request asks about.
func (r Request) TargetRole() string {
	return roles.ResolveTargetRole(r.Role, r.CustomRole)
}

// hasCV reports whether the request carries a CV in either form.
func (r Request) hasCV() bool {
	return strings.TrimSpace(r.CVText) != "" || len(r.CVContent) > 0
}

// checked is the view of a Request the validator sees. Field order sets
// the order failures are reported in.
type checked struct {
	CV             bool    `validate:"required"`
	TargetRole     string  `validate:"required"`
	JobDescription *string `validate:"omitnil,min=60"`
}

var fieldErrors = map[string]struct{ code, message string }{
	"CV":             {errors.ErrCodeMissingCV, MsgMissingCV},
	"TargetRole":     {errors.ErrCodeMissingRole, MsgMissingRole},
	"JobDescription": {errors.ErrCodeJobDescriptionShort, MsgJobDescriptionShort},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request before any processing starts. The first
// failing rule becomes a validation AppError carrying its user message.
func (r Request) Validate() error {
	c := checked{
		CV:         r.hasCV(),
		TargetRole: r.TargetRole(),
	}
	if r.UseJobDescription {
		jd := strings.TrimSpace(r.JobDescription)
		c.JobDescription = &jd
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := fieldErrors[verrs[0].Field()]
		appErr := errors.NewValidationError(fe.code, fe.message, nil)
		if verrs[0].Field() == "JobDescription" {
			appErr.WithContext("length", utf8.RuneCountInString(*c.JobDescription)).
				WithContext("minimum", MinJobDescriptionLength)
		}
		return appErr
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid analysis request", err)
}
