package archive

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pmnarchive/internal/config"
	"pmnarchive/internal/domain"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/taxonomy"
)

var nameNoSlashes = regexp.MustCompile(`^[^/]+$`)

// validateCreateFolderRequest validates a folder creation request
func validateCreateFolderRequest(req *archiveSvc.CreateFolderRequest, tax *taxonomy.Registry) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxFolderNameLength),
			validation.Match(nameNoSlashes).Error("folder name cannot contain slashes"),
		),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return validateTaxonomy(req.Category, req.Status, tax)
}

// validateUpdateFolderRequest validates a folder update request
func validateUpdateFolderRequest(req *archiveSvc.UpdateFolderRequest, tax *taxonomy.Registry) error {
	if req.Name == nil && req.Category == nil && req.Status == nil &&
		req.FolderNumber == nil && !req.ParentID.Present {
		return &domain.ValidationError{Message: "at least one field must be provided"}
	}

	rules := []*validation.FieldRules{}
	if req.Name != nil {
		rules = append(rules,
			validation.Field(&req.Name,
				validation.Required,
				validation.Length(1, config.MaxFolderNameLength),
				validation.Match(nameNoSlashes).Error("folder name cannot contain slashes"),
			),
		)
	}
	if len(rules) > 0 {
		if err := validation.ValidateStruct(req, rules...); err != nil {
			return &domain.ValidationError{Message: err.Error()}
		}
	}

	category := ""
	if req.Category != nil {
		category = *req.Category
	}
	status := ""
	if req.Status != nil {
		status = *req.Status
	}
	return validateTaxonomy(category, status, tax)
}

// validateCreateDocumentRequest validates a document registration request
func validateCreateDocumentRequest(req *archiveSvc.CreateDocumentRequest, tax *taxonomy.Registry) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxDocumentNameLength),
		),
		validation.Field(&req.StorageKey, validation.Required),
		validation.Field(&req.SizeBytes, validation.Min(0)),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return validateTaxonomy(req.Category, "", tax)
}

func validateTaxonomy(category, status string, tax *taxonomy.Registry) error {
	if !tax.ValidCategory(category) {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown category %q", category)}
	}
	if !tax.ValidStatus(status) {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown status %q", status)}
	}
	return nil
}
