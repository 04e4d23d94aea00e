package main

import (
	"context"
	"fmt"
	"io"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/taskmesh"
	"github.com/hupe1980/taskmesh/classify"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/memory"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/model/anthropic"
	"github.com/hupe1980/taskmesh/model/openai"
	"github.com/hupe1980/taskmesh/registry"
	"github.com/hupe1980/taskmesh/specialist"
	"github.com/hupe1980/taskmesh/tool"
)

const (
	documentInstructions = `You are a document processing specialist. You help users extract text
from documents, summarize their contents and answer questions about them.
Use the available tools when a concrete file is referenced.`

	generalInstructions = `You are a helpful assistant. Answer the user's question directly and
concisely.`
)

// app bundles the wired mesh with the resources that need closing.
type app struct {
	mesh   *taskmesh.TaskMesh
	closer io.Closer
}

func (a *app) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// wireApp builds a TaskMesh from configuration: store backend, inference
// provider, classifier and the three stock specialists.
func wireApp(cfg *Config, logger logging.Logger) (*app, error) {
	store, closer, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	m, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	mesh := taskmesh.New(func(o *taskmesh.Options) {
		o.Store = store
		o.DefaultSpecialist = cfg.Routing.DefaultSpecialist
		o.ClassifyTimeout = cfg.Routing.ClassifyTimeout
		o.ExecuteTimeout = cfg.Routing.ExecuteTimeout
		o.Logger = logger
		if cfg.Routing.Classifier == "model" {
			o.NewClassifier = func(reg *registry.Registry) core.Classifier {
				return classify.NewModelClassifier(m, reg, cfg.Routing.DefaultSpecialist,
					func(mo *classify.ModelOptions) { mo.Logger = logger })
			}
		}
	})

	if err := registerSpecialists(mesh, m); err != nil {
		return nil, err
	}

	return &app{mesh: mesh, closer: closer}, nil
}

func buildStore(cfg *Config) (core.Store, io.Closer, error) {
	switch cfg.Store.Backend {
	case "memory", "":
		return memory.NewInMemoryStore(), nil, nil
	case "sqlite":
		s, err := memory.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildModel(cfg *Config) (model.Model, error) {
	switch cfg.Provider.Name {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Provider.Model != "" {
				o.Model = cfg.Provider.Model
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Provider.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Provider.Model)
			}
			if cfg.Provider.APIKey != "" {
				o.APIKey = cfg.Provider.APIKey
			}
		}), nil
	case "mock", "":
		return model.NewMockModel("taskmesh-mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

func registerSpecialists(mesh *taskmesh.TaskMesh, m model.Model) error {
	docCaps := []string{"document", "pdf", "invoice", "ocr", "extract text", "scan", "summarize"}
	videoCaps := []string{"video", "clip", "frames", "faces", "emotion"}

	registrations := []registry.Registration{
		{
			Tag:          "document",
			Kind:         core.TaskKindDocument,
			Capabilities: docCaps,
			New: func() (core.TaskExecutor, error) {
				return specialist.NewModel("document", core.TaskKindDocument, docCaps,
					m, documentInstructions, documentTools()), nil
			},
		},
		{
			Tag:          "video",
			Kind:         core.TaskKindVideo,
			Capabilities: videoCaps,
			New: func() (core.TaskExecutor, error) {
				return specialist.NewPlaceholder("video", core.TaskKindVideo, videoCaps), nil
			},
		},
		{
			Tag:  "general",
			Kind: core.TaskKindGeneral,
			New: func() (core.TaskExecutor, error) {
				return specialist.NewModel("general", core.TaskKindGeneral, nil,
					m, generalInstructions, nil), nil
			},
		},
	}

	for _, reg := range registrations {
		if err := mesh.RegisterSpecialist(reg); err != nil {
			return err
		}
	}
	return nil
}

// documentTools returns the OCR tool surface. The actual OCR engine is an
// external concern; this build ships a stub that reports the limitation to
// the model instead of failing the turn.
func documentTools() []tool.Tool {
	return []tool.Tool{
		tool.NewFunc(
			"process_document_ocr",
			"Extract text from a document image or PDF at the given path",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "File path of the document"},
				},
				"required": []string{"path"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				path, _ := args["path"].(string)
				return fmt.Sprintf("OCR engine not bundled in this build; could not read %q. Ask the user to paste the text.", path), nil
			},
		),
	}
}
