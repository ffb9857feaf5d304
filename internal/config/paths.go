// Package config provides file-layout and environment helpers for the
// srishti commands.
package config

import (
	"os"
	"path/filepath"
)

// Default on-disk layout, relative to the data directory.
const (
	DefaultDataDir      = "data"
	CacheFile           = "online_cache.json"
	ValidationFile      = "validation_data.json"
	TrainingFile        = "new_training_data.json"
	ClassifierFile      = "classifier.json"
	DetectionModelFile  = "yolov8n.onnx"
	WhisperModelFile    = "ggml-base.en.bin"
	CueSoundFile        = "beep.mp3"
	cacheSubdir         = "cache"
	knowledgeBaseSubdir = "knowledge_base"
	modelsSubdir        = "models"
	validationSubdir    = "validation"
)

// Paths holds resolved locations of every persisted file.
type Paths struct {
	Root           string
	Cache          string
	Validation     string
	Training       string
	Classifier     string
	DetectionModel string
	WhisperModel   string
	CueSound       string
}

// DataDir returns the data directory from SRISHTI_DATA_DIR.
// Falls back to the provided default if not set.
func DataDir(defaultDir string) string {
	if dir := os.Getenv("SRISHTI_DATA_DIR"); dir != "" {
		return dir
	}
	if defaultDir == "" {
		return DefaultDataDir
	}
	return defaultDir
}

// Resolve lays out all file paths under root.
func Resolve(root string) Paths {
	return Paths{
		Root:           root,
		Cache:          filepath.Join(root, cacheSubdir, CacheFile),
		Validation:     filepath.Join(root, validationSubdir, ValidationFile),
		Training:       filepath.Join(root, knowledgeBaseSubdir, TrainingFile),
		Classifier:     filepath.Join(root, modelsSubdir, ClassifierFile),
		DetectionModel: filepath.Join(root, modelsSubdir, DetectionModelFile),
		WhisperModel:   filepath.Join(root, modelsSubdir, WhisperModelFile),
		CueSound:       filepath.Join(root, CueSoundFile),
	}
}

// Env returns the value of key, or fallback when unset or empty.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
