// Package onnx runs the waste classification model in-process with ONNX Runtime.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/example/ewaste-check/internal/classifier"
)

// EnvSharedLibraryPath names the environment variable consulted when no library path is configured.
const EnvSharedLibraryPath = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// Config locates the model and describes its input tensor.
type Config struct {
	ModelPath         string
	LabelsPath        string
	SharedLibraryPath string
	InputName         string
	OutputName        string
	Width             int
	Height            int
}

// Model wraps an ONNX session with preallocated tensors. Run mutates those
// tensors, so inference is serialized while preprocessing stays concurrent.
type Model struct {
	session *ort.AdvancedSession
	labels  []string
	width   int
	height  int
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	logger  *zap.Logger

	mu sync.Mutex
}

var _ classifier.Classifier = (*Model)(nil)

// ErrClosed is returned by Classify once the model has been released.
var ErrClosed = errors.New("onnx classifier closed")

// Load initializes ONNX Runtime, reads the label vocabulary and opens the model.
func Load(cfg Config, logger *zap.Logger) (*Model, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is empty")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid input size %dx%d", cfg.Width, cfg.Height)
	}

	libPath := cfg.SharedLibraryPath
	if libPath == "" {
		libPath = os.Getenv(EnvSharedLibraryPath)
	}
	if libPath == "" {
		return nil, fmt.Errorf("onnxruntime shared library not found; set %s or classifier.shared_library_path", EnvSharedLibraryPath)
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", cfg.ModelPath, err)
	}

	labels, err := classifier.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Height), int64(cfg.Width), 3))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	logger = logger.Named("onnx_classifier")
	logger.Info("model loaded",
		zap.String("model_path", cfg.ModelPath),
		zap.Int("labels", len(labels)),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))

	return &Model{
		session: session,
		labels:  labels,
		width:   cfg.Width,
		height:  cfg.Height,
		input:   input,
		output:  output,
		logger:  logger,
	}, nil
}

// Classify preprocesses image and runs the model.
func (m *Model) Classify(ctx context.Context, image []byte) (*classifier.Result, error) {
	if m == nil {
		return nil, errors.New("onnx classifier not initialized")
	}

	pixels, err := Preprocess(image, m.width, m.height)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrClosed
	}

	copy(m.input.GetData(), pixels)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	probs := append([]float32(nil), m.output.GetData()...)
	return classifier.FromDistribution(m.labels, probs), nil
}

// Close releases the session and tensors. Later calls are no-ops.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
		m.session = nil
	}
	if m.input != nil {
		errs = append(errs, m.input.Destroy())
		m.input = nil
	}
	if m.output != nil {
		errs = append(errs, m.output.Destroy())
		m.output = nil
	}
	return errors.Join(errs...)
}
