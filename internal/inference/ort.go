package inference

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// SessionOptions controls ONNX Runtime session creation.
type SessionOptions struct {
	NumThreads  int    // intra-op thread count, 0 for runtime default
	LibraryPath string // explicit path to the ONNX Runtime shared library
}

// ORTBackend runs a single ONNX model through ONNX Runtime. Run is guarded by
// a mutex, so a backend instance may be shared across goroutines; calls are
// serialized per session.
type ORTBackend struct {
	modelPath   string
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	mu          sync.Mutex
}

var ortEnvOnce sync.Once

func defaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}

// initEnvironment initializes the process-wide ONNX Runtime environment once.
func initEnvironment(libraryPath string) error {
	var initErr error
	ortEnvOnce.Do(func() {
		if libraryPath == "" {
			libraryPath = os.Getenv("ONNXRUNTIME_LIB_PATH")
		}
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		} else if runtime.GOOS != "windows" {
			// Fall back to a library next to the executable, a common
			// packaging layout, before the system default search.
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), defaultLibraryName())
				if _, err := os.Stat(candidate); err == nil {
					ort.SetSharedLibraryPath(candidate)
				}
			}
		}
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	return initErr
}

// NewORTBackend loads the model at modelPath into an ONNX Runtime session.
func NewORTBackend(modelPath string, opts SessionOptions) (*ORTBackend, error) {
	if modelPath == "" {
		return nil, errors.New("model path cannot be empty")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s declares %d inputs and %d outputs", modelPath, len(inputs), len(outputs))
	}

	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}
	outputNames := make([]string, len(outputs))
	for i, out := range outputs {
		outputNames[i] = out.Name
	}

	sessionOptions, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := sessionOptions.Destroy(); err != nil {
			slog.Warn("failed to destroy session options", "error", err)
		}
	}()
	if opts.NumThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(opts.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	slog.Debug("ONNX session created",
		"model_path", modelPath,
		"inputs", inputNames,
		"outputs", outputNames)

	return &ORTBackend{
		modelPath:   modelPath,
		session:     session,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// InputNames returns the model's input names in declaration order.
func (b *ORTBackend) InputNames() []string { return b.inputNames }

// OutputNames returns the model's output names in declaration order.
func (b *ORTBackend) OutputNames() []string { return b.outputNames }

// Run executes the session. Inputs are matched to the model's declared input
// names; every declared input must be supplied.
func (b *ORTBackend) Run(inputs []NamedTensor) ([]NamedTensor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil, errors.New("backend is closed")
	}

	byName := make(map[string]Tensor, len(inputs))
	for _, in := range inputs {
		byName[in.Name] = in.Tensor
	}

	ortInputs := make([]ort.Value, len(b.inputNames))
	defer func() {
		for _, v := range ortInputs {
			if v != nil {
				if err := v.Destroy(); err != nil {
					slog.Warn("failed to destroy input tensor", "error", err)
				}
			}
		}
	}()
	for i, name := range b.inputNames {
		t, ok := byName[name]
		if !ok {
			// A single unnamed input is matched positionally, the way the
			// recognizer and detector bind their lone "x" input.
			if len(inputs) == len(b.inputNames) {
				t = inputs[i].Tensor
			} else {
				return nil, fmt.Errorf("missing input tensor %q", name)
			}
		}
		v, err := toORTValue(t)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		ortInputs[i] = v
	}

	outputs := make([]ort.Value, len(b.outputNames))
	if err := b.session.Run(ortInputs, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				if err := v.Destroy(); err != nil {
					slog.Warn("failed to destroy output tensor", "error", err)
				}
			}
		}
	}()

	results := make([]NamedTensor, len(outputs))
	for i, v := range outputs {
		t, err := fromORTValue(v)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", b.outputNames[i], err)
		}
		results[i] = NamedTensor{Name: b.outputNames[i], Tensor: t}
	}
	return results, nil
}

// Close releases the underlying session. The process-wide environment is left
// alive; it is torn down only at application shutdown.
func (b *ORTBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	err := b.session.Destroy()
	b.session = nil
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func toORTValue(t Tensor) (ort.Value, error) {
	shape := ort.NewShape(t.Shape()...)
	switch t.DType() {
	case Float32:
		data, _ := t.Float32s()
		return ort.NewTensor(shape, data)
	case Float64:
		data, _ := t.Float64s()
		return ort.NewTensor(shape, data)
	case Int32:
		data, _ := t.Int32s()
		return ort.NewTensor(shape, data)
	case Int64:
		data, _ := t.Int64s()
		return ort.NewTensor(shape, data)
	case Uint8:
		data, _ := t.Uint8s()
		return ort.NewTensor(shape, data)
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %s", t.DType())
	}
}

func fromORTValue(v ort.Value) (Tensor, error) {
	shape := v.GetShape()
	dims := make([]int64, len(shape))
	copy(dims, shape)

	switch tv := v.(type) {
	case *ort.Tensor[float32]:
		data := make([]float32, len(tv.GetData()))
		copy(data, tv.GetData())
		return NewFloat32(data, dims...)
	case *ort.Tensor[float64]:
		data := make([]float64, len(tv.GetData()))
		copy(data, tv.GetData())
		return NewFloat64(data, dims...)
	case *ort.Tensor[int32]:
		data := make([]int32, len(tv.GetData()))
		copy(data, tv.GetData())
		return NewInt32(data, dims...)
	case *ort.Tensor[int64]:
		data := make([]int64, len(tv.GetData()))
		copy(data, tv.GetData())
		return NewInt64(data, dims...)
	case *ort.Tensor[uint8]:
		data := make([]uint8, len(tv.GetData()))
		copy(data, tv.GetData())
		return NewUint8(data, dims...)
	default:
		return Tensor{}, fmt.Errorf("unsupported output tensor type %T", v)
	}
}
