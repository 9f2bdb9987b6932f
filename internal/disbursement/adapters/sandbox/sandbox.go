// Package sandbox is an in-process processor for development and test
// environments. It validates batches the way a real processor would and
// mints deterministic-looking batch ids without moving money.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/payrail/internal/disbursement/domain"
)

type Processor struct {
	mu         sync.Mutex
	dispatched int
}

func New() *Processor {
	return &Processor{}
}

func (p *Processor) Provider() string {
	return "sandbox"
}

func (p *Processor) DispatchBatch(ctx context.Context, items []domain.BatchItem) (string, error) {
	if len(items) == 0 {
		return "", &domain.DispatchError{
			Code:      domain.FailureValidation,
			Message:   "empty batch",
			Retryable: false,
		}
	}
	for _, item := range items {
		if strings.TrimSpace(item.PayeeEmail) == "" {
			return "", &domain.DispatchError{
				Code:      domain.FailureValidation,
				Message:   fmt.Sprintf("payout %s has no payee email", item.PayoutID),
				Retryable: false,
			}
		}
		if item.Amount <= 0 {
			return "", &domain.DispatchError{
				Code:      domain.FailureValidation,
				Message:   fmt.Sprintf("payout %s has non-positive amount", item.PayoutID),
				Retryable: false,
			}
		}
	}

	p.mu.Lock()
	p.dispatched++
	seq := p.dispatched
	p.mu.Unlock()

	return fmt.Sprintf("sandbox_batch_%d_%d", time.Now().UTC().Unix(), seq), nil
}
