// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

//go:build ocr

package ocr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseract drives libtesseract through gosseract. A client is created per
// call because gosseract clients are not safe for concurrent use.
type tesseract struct{}

func newEngine() engine {
	return tesseract{}
}

func (tesseract) probe() error {
	if gosseract.Version() == "" {
		return errors.New("tesseract library did not report a version")
	}
	return nil
}

func newClient(imagePath, lang string) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language %s: %w", lang, err)
	}
	if err := client.SetImage(imagePath); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return client, nil
}

func (tesseract) text(imagePath, lang string) (string, error) {
	client, err := newClient(imagePath, lang)
	if err != nil {
		return "", err
	}
	defer client.Close()
	return client.Text()
}

func (tesseract) words(imagePath, lang string) ([]Word, error) {
	client, err := newClient(imagePath, lang)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, err
	}
	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{Text: b.Word, Box: b.Box, Confidence: b.Confidence})
	}
	return words, nil
}
