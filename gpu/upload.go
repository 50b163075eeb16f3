package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// UploadState is the progress of a vertex upload. It is one of
// UploadNotStarted, *UploadPending or UploadCompleted.
type UploadState interface {
	uploadState()
}

// UploadNotStarted is the state before anything has been submitted.
type UploadNotStarted struct{}

// UploadPending holds the fence of the submitted copy and the staging buffer
// the copy reads from. Both stay alive until the fence is observed signalled.
type UploadPending struct {
	Fence   Owned[Fence]
	Staging Owned[TransferBuffer]
}

// UploadCompleted is reached once the copy has finished and the staging
// resources have been released.
type UploadCompleted struct{}

func (UploadNotStarted) uploadState() {}
func (*UploadPending) uploadState()   {}
func (UploadCompleted) uploadState()  {}

// UploadStatus is the result of polling an upload.
type UploadStatus int

const (
	UploadStatusPending UploadStatus = iota
	UploadStatusCompleted
)

func (s UploadStatus) String() string {
	if s == UploadStatusCompleted {
		return "completed"
	}
	return "pending"
}

// Upload tracks one in-flight host to device copy.
type Upload struct {
	device Device
	state  UploadState
	log    *logrus.Entry
}

type uploadOptions struct {
	label string
	log   *logrus.Entry
}

type UploadOption func(*uploadOptions)

// WithUploadLabel sets the debug label of the buffers created by the upload.
func WithUploadLabel(label string) UploadOption {
	return func(o *uploadOptions) {
		o.label = label
	}
}

// WithUploadLogger sets the logger used for upload progress. The package
// logger is used otherwise.
func WithUploadLogger(entry *logrus.Entry) UploadOption {
	return func(o *uploadOptions) {
		o.log = entry
	}
}

// BeginUpload creates a vertex buffer sized for data, stages data in a
// transfer buffer and submits the copy between them. The returned buffer
// must not be bound until the returned Upload reports completion.
//
// On error nothing created by the call is left alive.
func BeginUpload(device Device, data []byte, opts ...UploadOption) (buffer Owned[Buffer], upload *Upload, err error) {
	o := uploadOptions{label: "vertex buffer"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = Logger()
	}

	if device == nil {
		return Owned[Buffer]{}, nil, errors.Mark(errors.New("no device"), ErrResourceCreation)
	}
	if len(data) == 0 {
		return Owned[Buffer]{}, nil, errors.Mark(errors.New("no data to upload"), ErrResourceCreation)
	}
	size := len(data)

	// Released in reverse order of creation when err is set.
	var staging Owned[TransferBuffer]
	defer func() {
		if err != nil {
			staging.Release()
			buffer.Release()
		}
	}()

	vb, err := device.CreateBuffer(BufferCreateInfo{
		Label: o.label,
		Usage: BufferUsageVertex,
		Size:  size,
	})
	if err != nil {
		return Owned[Buffer]{}, nil, resourceError(err, "create vertex buffer")
	}
	buffer = OwnBuffer(device, vb)

	tb, err := device.CreateTransferBuffer(TransferBufferCreateInfo{
		Label: o.label + " staging",
		Usage: TransferBufferUsageUpload,
		Size:  size,
	})
	if err != nil {
		return buffer, nil, resourceError(err, "create transfer buffer")
	}
	staging = OwnTransferBuffer(device, tb)

	mapped, err := device.MapTransferBuffer(tb)
	if err != nil {
		return buffer, nil, resourceError(err, "map transfer buffer")
	}
	copy(mapped, data)
	device.UnmapTransferBuffer(tb)

	cmd, err := device.AcquireCommandBuffer()
	if err != nil {
		return buffer, nil, submissionError(err, "acquire upload command buffer")
	}

	pass := cmd.BeginCopyPass()
	pass.UploadToBuffer(
		TransferBufferLocation{TransferBuffer: tb},
		BufferRegion{Buffer: vb, Size: size},
	)
	pass.End()

	fence, err := cmd.SubmitAndAcquireFence()
	if err != nil {
		cmd.Cancel()
		return buffer, nil, submissionError(err, "submit upload")
	}

	upload = &Upload{
		device: device,
		state: &UploadPending{
			Fence:   OwnFence(device, fence),
			Staging: staging.Take(),
		},
		log: o.log,
	}
	o.log.WithField("bytes", size).Info("Vertex buffer upload submitted (async)")

	return buffer, upload, nil
}

// State returns the current upload state.
func (u *Upload) State() UploadState {
	if u == nil || u.state == nil {
		return UploadNotStarted{}
	}
	return u.state
}

// Completed reports whether the upload has been observed complete.
func (u *Upload) Completed() bool {
	_, ok := u.State().(UploadCompleted)
	return ok
}

// Poll checks the upload fence without blocking. The first call that sees
// the fence signalled releases the fence and the staging buffer.
func (u *Upload) Poll() UploadStatus {
	switch s := u.State().(type) {
	case UploadCompleted:
		return UploadStatusCompleted
	case *UploadPending:
		if !u.device.QueryFence(s.Fence.Get()) {
			return UploadStatusPending
		}
		s.Fence.Release()
		s.Staging.Release()
		u.state = UploadCompleted{}
		u.log.Info("Vertex buffer upload complete")
		return UploadStatusCompleted
	default:
		return UploadStatusPending
	}
}

// Release frees a pending fence and staging buffer without waiting for the
// copy. The device must be idle. Calling it more than once does nothing.
func (u *Upload) Release() {
	if u == nil {
		return
	}
	if s, ok := u.state.(*UploadPending); ok {
		s.Fence.Release()
		s.Staging.Release()
	}
	if _, ok := u.state.(UploadCompleted); !ok {
		u.state = UploadNotStarted{}
	}
}
