package mail

import (
	"context"
	"net/mail"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type SearchFinder interface {
	FindByID(ctx context.Context, id string) (*entity.Search, error)
}

type FinishedSender interface {
	SendSearchFinished(to string, data SearchFinishedEmailData) error
}

// SearchNotifier avisa o dono da busca por e-mail quando a execução termina.
// Donos que não são endereços de e-mail (ids opacos, "system") são ignorados.
type SearchNotifier struct {
	Searches SearchFinder
	Sender   FinishedSender
	Logger   *zap.Logger
}

func NewSearchNotifier(searches SearchFinder, sender FinishedSender, logger *zap.Logger) *SearchNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchNotifier{Searches: searches, Sender: sender, Logger: logger}
}

// Notify tem a assinatura de usecase.SearchFinishedFunc. Falhas só são logadas.
func (n *SearchNotifier) Notify(ctx context.Context, job entity.SearchJob, out *usecase.RunSearchOutput) {
	if out == nil {
		return
	}
	addr, err := mail.ParseAddress(job.Owner)
	if err != nil {
		return
	}

	data := SearchFinishedEmailData{
		SearchID:     job.SearchID,
		SearchName:   job.SearchID,
		Succeeded:    out.Succeeded(),
		LeadsFound:   out.LeadsFound,
		ErrorMessage: out.Message,
	}
	if data.Succeeded {
		data.ErrorMessage = ""
	}
	if s, err := n.Searches.FindByID(ctx, job.SearchID); err == nil {
		data.SearchName = s.Name
	}

	if err := n.Sender.SendSearchFinished(addr.Address, data); err != nil {
		n.Logger.Warn("search notification not sent",
			zap.String("search_id", job.SearchID), zap.Error(err))
		return
	}
	n.Logger.Debug("search notification sent", zap.String("search_id", job.SearchID))
}
