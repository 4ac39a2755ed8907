package echoapi

import (
	"time"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
)

type (
	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	AddFieldRequest struct {
		form.FieldPatch
	}

	AddFieldResponse struct {
		FieldID string      `json:"field_id"`
		Schema  form.Schema `json:"schema"`
	}

	MoveFieldRequest struct {
		Direction form.Direction `json:"direction"`
	}

	SchemaResponse struct {
		Schema  form.Schema `json:"schema"`
		Changed bool        `json:"changed"`
	}

	TitleRequest struct {
		Title string `json:"title" validate:"max=200"`
	}

	DescriptionRequest struct {
		Description string `json:"description" validate:"max=5000"`
	}

	SubmissionResponse struct {
		Reference   string    `json:"reference"`
		SubmittedAt time.Time `json:"submitted_at"`
	}
)
