package model

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/reeflabs/edgembed/internal/pooling"
	"github.com/reeflabs/edgembed/internal/tokenize"
)

// ExecutionContext carries the execution settings for ONNX sessions. It is
// passed explicitly into session construction rather than living in process
// globals, so tests and callers can pin CPU-only single-threaded runs.
type ExecutionContext struct {
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// platform default search path.
	LibraryPath string
	// IntraOpThreads limits parallelism inside a single operator. Zero
	// leaves the runtime default.
	IntraOpThreads int
	// InterOpThreads limits parallelism across operators. Zero leaves the
	// runtime default.
	InterOpThreads int
}

// Runtime owns the process-wide ONNX runtime environment. Sessions must not
// outlive the Runtime that created them.
type Runtime struct {
	mu     sync.Mutex
	ec     ExecutionContext
	closed bool
}

// NewRuntime initializes the ONNX runtime environment.
func NewRuntime(ec ExecutionContext) (*Runtime, error) {
	if ec.LibraryPath != "" {
		ort.SetSharedLibraryPath(ec.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize ONNX runtime: %w", err)
	}
	return &Runtime{ec: ec}, nil
}

// Close tears down the runtime environment.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("destroy ONNX runtime: %w", err)
	}
	return nil
}

func (r *Runtime) sessionOptions() (*ort.SessionOptions, error) {
	if r.ec.IntraOpThreads == 0 && r.ec.InterOpThreads == 0 {
		return nil, nil
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	if r.ec.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(r.ec.IntraOpThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}
	if r.ec.InterOpThreads > 0 {
		if err := opts.SetInterOpNumThreads(r.ec.InterOpThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set inter-op threads: %w", err)
		}
	}
	return opts, nil
}

// Session wraps an ONNX session over an embedding graph.
type Session struct {
	config  GraphConfig
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
}

var _ TokenEmbedder = (*Session)(nil)

// NewSession creates a session over serialized ONNX graph data.
func (r *Runtime) NewSession(graph []byte, config GraphConfig) (*Session, error) {
	if len(graph) == 0 {
		return nil, fmt.Errorf("empty ONNX graph")
	}
	if config.HiddenSize <= 0 {
		return nil, fmt.Errorf("graph config has no hidden size")
	}

	opts, err := r.sessionOptions()
	if err != nil {
		return nil, err
	}
	if opts != nil {
		defer opts.Destroy()
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		graph,
		config.InputNames,
		[]string{config.OutputName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}

	return &Session{config: config, session: session}, nil
}

// NewSessionFromFile creates a session from an ONNX file on disk.
func (r *Runtime) NewSessionFromFile(path string, config GraphConfig) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return r.NewSession(data, config)
}

// Config returns the session's graph config.
func (s *Session) Config() GraphConfig {
	return s.config
}

// Run executes the graph on a single token batch and returns the raw output
// tensor values.
func (s *Session) run(ctx context.Context, batch tokenize.TokenBatch) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid token batch: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seqLen := batch.SeqLen()
	inputShape := ort.NewShape(1, int64(seqLen))

	typeIDs := batch.TypeIDs
	if typeIDs == nil {
		typeIDs = make([]int64, seqLen)
	}
	feeds := map[string][]int64{
		"input_ids":      batch.IDs,
		"attention_mask": batch.Mask,
		"token_type_ids": typeIDs,
	}

	inputs := make([]ort.Value, 0, len(s.config.InputNames))
	defer func() {
		for _, t := range inputs {
			t.Destroy()
		}
	}()
	for _, name := range s.config.InputNames {
		data, ok := feeds[name]
		if !ok {
			return nil, fmt.Errorf("unsupported input tensor %q", name)
		}
		tensor, err := ort.NewTensor(inputShape, data)
		if err != nil {
			return nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		inputs = append(inputs, tensor)
	}

	var outputShape ort.Shape
	if s.config.Pooled() {
		outputShape = ort.NewShape(1, int64(s.config.HiddenSize))
	} else {
		outputShape = ort.NewShape(1, int64(seqLen), int64(s.config.HiddenSize))
	}
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := s.session.Run(inputs, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}

	flat := output.GetData()
	out := make([]float32, len(flat))
	copy(out, flat)
	return out, nil
}

// Run executes the graph and returns the last hidden state as a
// seq-length x dim matrix. Only valid for graphs that output token-level
// states.
func (s *Session) Run(ctx context.Context, batch tokenize.TokenBatch) ([][]float32, error) {
	if s.config.Pooled() {
		return nil, fmt.Errorf("graph outputs pooled embeddings, not token states")
	}
	flat, err := s.run(ctx, batch)
	if err != nil {
		return nil, err
	}
	return pooling.FromFlat(flat, batch.SeqLen(), s.config.HiddenSize)
}

// Close releases the session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
