package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

// Hook is a best-effort side effect run after an operation has committed
type Hook struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunHooks runs hooks in order. A failing or panicking hook is recorded as a
// diagnostic and never stops the ones after it.
func RunHooks(ctx context.Context, logger *zap.Logger, hooks ...Hook) []domain.Diagnostic {
	if logger == nil {
		logger = zap.NewNop()
	}
	var diagnostics []domain.Diagnostic
	for _, hook := range hooks {
		if err := runHook(ctx, hook); err != nil {
			logger.Warn("Post-commit hook failed", zap.String("hook", hook.Name), zap.Error(err))
			diagnostics = append(diagnostics, domain.Diagnostic{Hook: hook.Name, Error: err.Error()})
		}
	}
	return diagnostics
}

func runHook(ctx context.Context, hook Hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook.Run(ctx)
}
