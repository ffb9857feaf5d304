package detection

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Camera reads JPEG frames from a local video device.
type Camera struct {
	device int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
}

// OpenCamera opens the video device with the given index.
func OpenCamera(device int) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d did not open", ErrCameraUnavailable, device)
	}
	return &Camera{
		device:  device,
		capture: capture,
		frame:   gocv.NewMat(),
	}, nil
}

// Frame grabs one frame and encodes it as JPEG.
func (c *Camera) Frame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraUnavailable
	}
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, fmt.Errorf("detection: failed to grab frame from device %d", c.device)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.frame)
	if err != nil {
		return nil, fmt.Errorf("detection: encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device. It is safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	c.frame.Close()
	return err
}
