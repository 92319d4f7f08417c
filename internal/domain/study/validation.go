package study

import "strings"

// ValidateSettings validates the configurable study fields.
func ValidateSettings(in Settings) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidInput
	}

	switch in.TimerMode {
	case TimerDisabled:
	case TimerHidden, TimerVisible:
		if in.DurationInMinutes == nil || *in.DurationInMinutes <= 0 {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}

	switch in.ExternalImageMode {
	case ExternalImagesAsk, ExternalImagesHide, ExternalImagesShow:
	default:
		return ErrInvalidInput
	}

	if in.ConsentRequired && strings.TrimSpace(in.ConsentText) == "" {
		return ErrInvalidInput
	}
	for _, tmpl := range []*string{in.StartLinkTemplate, in.EndLinkTemplate} {
		if tmpl != nil && strings.TrimSpace(*tmpl) == "" {
			return ErrInvalidInput
		}
	}
	return nil
}

func validateFolders(folders []FolderInput) error {
	for _, f := range folders {
		if strings.TrimSpace(f.Name) == "" {
			return ErrInvalidInput
		}
	}
	return nil
}

func validateEmails(emails []StudyEmailInput) error {
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if strings.TrimSpace(e.EmailID) == "" {
			return ErrInvalidInput
		}
		if _, dup := seen[e.EmailID]; dup {
			return ErrInvalidInput
		}
		seen[e.EmailID] = struct{}{}
	}
	return nil
}
