package generation

import (
	"fmt"
	"strings"
)

const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
	DeviceMPS  = "mps"
)

// ModelSpec names the model to serve and how to load it.
type ModelSpec struct {
	Path     string
	Base     string
	Load8Bit bool
	Load4Bit bool
	Device   string
}

func (s ModelSpec) Validate() error {
	if strings.Trim(s.Path, "/") == "" {
		return fmt.Errorf("%w: empty model path", ErrInvalidModel)
	}
	if s.Load8Bit && s.Load4Bit {
		return ErrConflictingQuantization
	}
	switch s.Device {
	case "", DeviceCUDA, DeviceCPU, DeviceMPS:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDevice, s.Device)
	}
	if strings.Contains(strings.ToLower(s.ModelName()), "lora") && s.Base == "" {
		return fmt.Errorf("%w: %s", ErrBaseModelRequired, s.ModelName())
	}
	return nil
}

// ModelName is the last element of the model path. Checkpoint directories
// are qualified by their parent, so runs/llava/checkpoint-500 becomes
// llava_checkpoint-500.
func (s ModelSpec) ModelName() string {
	parts := strings.Split(strings.Trim(s.Path, "/"), "/")
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "checkpoint-") && len(parts) > 1 {
		return parts[len(parts)-2] + "_" + last
	}
	return last
}

func (s ModelSpec) Quantization() string {
	switch {
	case s.Load8Bit:
		return "8bit"
	case s.Load4Bit:
		return "4bit"
	default:
		return ""
	}
}
