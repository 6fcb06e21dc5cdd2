package bundle

import (
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/htmlinject/internal/errors"
)

// Session keeps an incremental esbuild context alive between rebuilds.
type Session struct {
	mu  sync.Mutex
	ctx api.BuildContext
}

// NewSession creates the build context. No build runs until Rebuild.
func NewSession(opts api.BuildOptions) (*Session, error) {
	ctx, cerr := api.Context(opts)
	if cerr != nil {
		return nil, Failure(cerr.Errors, nil)
	}
	return &Session{ctx: ctx}, nil
}

// Rebuild runs an incremental build. Calls are serialised.
func (s *Session) Rebuild() (api.BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return api.BuildResult{}, errors.NewBuildError(errors.CodeBuildFailed, "session disposed", nil)
	}
	result := s.ctx.Rebuild()
	return result, Failure(result.Errors, result.Warnings)
}

// Dispose releases the build context.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		s.ctx.Dispose()
		s.ctx = nil
	}
}
