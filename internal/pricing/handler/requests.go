package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pricetrends/internal/pricing/models"
	"pricetrends/internal/pricing/service"
	dErrors "pricetrends/pkg/domain-errors"
)

const maxQueryValueLength = 64

// parseParams reads granularity, approved, from and to from the query string.
func parseParams(r *http.Request) (models.Params, error) {
	q := r.URL.Query()
	for _, key := range []string{"granularity", "approved", "from", "to"} {
		if len(q.Get(key)) > maxQueryValueLength {
			return models.Params{}, dErrors.New(dErrors.CodeBadRequest, key+" is too long")
		}
	}
	return service.ParseParams(q.Get("granularity"), q.Get("approved"), q.Get("from"), q.Get("to"))
}

func parseKind(r *http.Request) (models.ReportKind, error) {
	kind, err := models.ParseReportKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeNotFound, err.Error())
	}
	return kind, nil
}
