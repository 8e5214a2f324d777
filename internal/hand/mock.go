package hand

// MockTracker is a test implementation of the Tracker interface.
// It allows tests to control the polled frames.
type MockTracker struct {
	frames []Frame
	err    error
	polls  int
}

// NewMockTracker creates a new MockTracker instance.
func NewMockTracker() *MockTracker {
	return &MockTracker{}
}

// SetFrames sets the frames that will be returned by Poll.
func (m *MockTracker) SetFrames(frames ...Frame) {
	m.frames = frames
}

// SetError sets the error that will be returned by Poll.
func (m *MockTracker) SetError(err error) {
	m.err = err
}

// Polls returns how many times Poll was called.
func (m *MockTracker) Polls() int {
	return m.polls
}

// Poll returns the pre-configured frames or error.
func (m *MockTracker) Poll() ([]Frame, error) {
	m.polls++
	if m.err != nil {
		return nil, m.err
	}
	return m.frames, nil
}

// Close is a no-op for the mock tracker.
func (m *MockTracker) Close() error {
	return nil
}

// Curls with every finger fully straight or fully curled, and the two
// poses the gesture core reacts to.
var (
	OpenCurls  = [NumFingers]float64{0.05, 0.05, 0.05, 0.05, 0.05}
	FistCurls  = [NumFingers]float64{0.9, 0.9, 0.9, 0.9, 0.9}
	PointCurls = [NumFingers]float64{0.8, 0.05, 0.9, 0.9, 0.9}
)
