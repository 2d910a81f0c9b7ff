// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ocr

import (
	"errors"
	"fmt"
	"regexp"
)

// Language is one entry of the closed OCR language set
type Language struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Tesseract string `json:"tesseract"`
}

// DefaultLanguage is preselected in the UI
const DefaultLanguage = "tr"

// Languages lists the supported OCR languages in UI order
var Languages = []Language{
	{Code: "tr", Name: "Türkçe", Tesseract: "tur"},
	{Code: "en", Name: "English", Tesseract: "eng"},
	{Code: "ch", Name: "中文", Tesseract: "chi_sim"},
	{Code: "fr", Name: "Français", Tesseract: "fra"},
	{Code: "de", Name: "Deutsch", Tesseract: "deu"},
	{Code: "japan", Name: "日本語", Tesseract: "jpn"},
	{Code: "korean", Name: "한국어", Tesseract: "kor"},
	{Code: "ar", Name: "العربية", Tesseract: "ara"},
	{Code: "ru", Name: "Русский", Tesseract: "rus"},
	{Code: "es", Name: "Español", Tesseract: "spa"},
	{Code: "pt", Name: "Português", Tesseract: "por"},
	{Code: "it", Name: "Italiano", Tesseract: "ita"},
}

var (
	// ErrUnknownLanguage is returned for a code outside the closed set
	ErrUnknownLanguage = errors.New("unknown OCR language")

	// ErrInvalidLanguageSpec is returned for a malformed tesseract language string
	ErrInvalidLanguageSpec = errors.New("invalid tesseract language string")
)

// LookupLanguage resolves a closed-set code such as "tr" or "japan"
func LookupLanguage(code string) (Language, error) {
	for _, l := range Languages {
		if l.Code == code {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
}

var tesseractSpec = regexp.MustCompile(`^[a-z_]+(\+[a-z_]+)*$`)

// ValidateTesseract checks a free-form language string like "eng+tur"
func ValidateTesseract(langs string) error {
	if !tesseractSpec.MatchString(langs) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguageSpec, langs)
	}
	return nil
}

// ResolveLanguage accepts either a closed-set code or a tesseract language
// string and returns the tesseract form
func ResolveLanguage(lang string) (string, error) {
	if l, err := LookupLanguage(lang); err == nil {
		return l.Tesseract, nil
	}
	if err := ValidateTesseract(lang); err != nil {
		return "", err
	}
	return lang, nil
}
