package audiocore

import (
	"github.com/u-stem/koto/internal/errors"
)

// Component identifier for audiocore errors
const ComponentAudioCore = "audiocore"

// Sentinel errors are built once at init so the audio thread can return them
// without allocating. Each uses a distinct category because EnhancedError
// matches by category.
var (
	// ErrShapeMismatch is returned when a sample store does not divide evenly into frames
	ErrShapeMismatch = errors.New(errors.NewStd("sample count is not a multiple of channel count")).
				Component(ComponentAudioCore).
				Category(errors.CategoryBuffer).
				Context("resource", "audio_buffer").
				Build()

	// ErrPoolExhausted is returned when every pooled buffer is outstanding
	ErrPoolExhausted = errors.New(errors.NewStd("buffer pool exhausted")).
				Component(ComponentAudioCore).
				Category(errors.CategoryLimit).
				Context("resource", "buffer_pool").
				Build()

	// ErrForeignBuffer is returned when releasing a buffer the pool did not create
	ErrForeignBuffer = errors.New(errors.NewStd("buffer does not belong to this pool")).
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("resource", "buffer_pool").
				Build()

	// ErrDoubleRelease is returned when a buffer already in the free list is released again
	ErrDoubleRelease = errors.New(errors.NewStd("buffer released twice")).
				Component(ComponentAudioCore).
				Category(errors.CategoryState).
				Context("resource", "buffer_pool").
				Build()
)
