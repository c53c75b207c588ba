package service

import "ensgraph/internal/ens/models"

// ExtractProfile derives the display profile from a unified record. Pure
// transformation: absent inputs produce absent outputs, nothing can fail.
func ExtractProfile(details *models.DomainDetails) models.DomainProfile {
	texts := details.Texts

	displayName := details.BeautifiedName
	if v, ok := texts["name"]; ok && v != "" {
		displayName = v
	}

	return models.DomainProfile{
		DisplayName: displayName,
		Bio:         textOptional(texts, "description"),
		Email:       textOptional(texts, "email"),
		Phone:       textOptional(texts, "phone"),
		Location:    textOptional(texts, "location"),
		Website:     textOptional(texts, "url"),
		Avatar:      textOptional(texts, "avatar"),
		SocialLinks: models.SocialLinks{
			Twitter:  textOptional(texts, "com.twitter"),
			GitHub:   textOptional(texts, "com.github"),
			Discord:  textOptional(texts, "com.discord"),
			Telegram: firstTextOptional(texts, "org.telegram", "com.telegram"),
			Reddit:   textOptional(texts, "com.reddit"),
			LinkedIn: textOptional(texts, "com.linkedin"),
		},
	}
}

func textOptional(texts map[string]string, key string) *string {
	if v, ok := texts[key]; ok && v != "" {
		return &v
	}
	return nil
}

// firstTextOptional reads keys in order and returns the first present value.
func firstTextOptional(texts map[string]string, keys ...string) *string {
	for _, key := range keys {
		if v := textOptional(texts, key); v != nil {
			return v
		}
	}
	return nil
}
