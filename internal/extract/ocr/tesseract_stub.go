// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

//go:build !ocr

package ocr

type stubEngine struct{}

func newEngine() engine {
	return stubEngine{}
}

func (stubEngine) probe() error { return ErrOCRNotEnabled }

func (stubEngine) text(string, string) (string, error) { return "", ErrOCRNotEnabled }

func (stubEngine) words(string, string) ([]Word, error) { return nil, ErrOCRNotEnabled }
