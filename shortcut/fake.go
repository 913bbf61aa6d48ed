package shortcut

type FakeTrigger struct {
	keydown chan struct{}
	keyup   chan struct{}
	err     error

	Registered   bool
	Unregistered bool
}

func NewFake() *FakeTrigger {
	return &FakeTrigger{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

// NewFailingFake returns a trigger whose Register always fails with err.
func NewFailingFake(err error) *FakeTrigger {
	f := NewFake()
	f.err = err
	return f
}

func (f *FakeTrigger) Register() error {
	if f.err != nil {
		return f.err
	}
	f.Registered = true
	return nil
}

func (f *FakeTrigger) Unregister()              { f.Unregistered = true }
func (f *FakeTrigger) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeTrigger) Keyup() <-chan struct{}   { return f.keyup }

func (f *FakeTrigger) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeTrigger) SimKeyup()   { f.keyup <- struct{}{} }
