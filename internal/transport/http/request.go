package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	apierrors "genbea/internal/errors"
	"genbea/internal/quality"
	"genbea/internal/services"
)

// Query parameter names
const (
	paramYear               = "year"
	paramPeriod             = "period"
	paramAnnual             = "annual"
	paramSearch             = "q"
	paramPurity             = "purity"
	paramConcentration      = "concentration"
	paramPurityBands        = "purity_bands"
	paramConcentrationBands = "concentration_bands"

	// selectionPrefix marks a tracked column filter, as in f.Proyecto=GX.
	selectionPrefix = "f."
)

type requestCtxKey struct{}

// ParseRequest decodes a dashboard selection from query parameters. Tier
// and column parameters may repeat or hold comma separated values.
func ParseRequest(q url.Values) (services.Request, error) {
	req := services.Request{
		Year:   strings.TrimSpace(q.Get(paramYear)),
		Period: strings.TrimSpace(q.Get(paramPeriod)),
		Search: q.Get(paramSearch),
	}

	var err error
	if req.Annual, err = parseFlag(q, paramAnnual); err != nil {
		return req, err
	}
	if req.PurityBands, err = parseFlag(q, paramPurityBands); err != nil {
		return req, err
	}
	if req.ConcentrationBands, err = parseFlag(q, paramConcentrationBands); err != nil {
		return req, err
	}

	if req.PurityTiers, err = parseTiers(q, paramPurity, quality.Purity); err != nil {
		return req, err
	}
	if req.ConcentrationTiers, err = parseTiers(q, paramConcentration, quality.Concentration); err != nil {
		return req, err
	}

	for key, values := range q {
		column, ok := strings.CutPrefix(key, selectionPrefix)
		if !ok || column == "" {
			continue
		}
		// Values are cell contents and may contain commas, so they are
		// taken as given.
		var selected []string
		for _, v := range values {
			if v != "" {
				selected = append(selected, v)
			}
		}
		if len(selected) > 0 {
			if req.Selections == nil {
				req.Selections = make(map[string][]string)
			}
			req.Selections[column] = selected
		}
	}
	return req, nil
}

// EncodeRequest is the inverse of ParseRequest, used to build chart and
// download links for a selection.
func EncodeRequest(req services.Request) url.Values {
	q := url.Values{}
	q.Set(paramYear, req.Year)
	if req.Annual {
		q.Set(paramAnnual, "true")
	} else if req.Period != "" {
		q.Set(paramPeriod, req.Period)
	}
	if req.Search != "" {
		q.Set(paramSearch, req.Search)
	}
	columns := make([]string, 0, len(req.Selections))
	for c := range req.Selections {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	for _, c := range columns {
		for _, v := range req.Selections[c] {
			q.Add(selectionPrefix+c, v)
		}
	}
	for _, t := range req.PurityTiers {
		q.Add(paramPurity, string(t))
	}
	for _, t := range req.ConcentrationTiers {
		q.Add(paramConcentration, string(t))
	}
	if req.PurityBands {
		q.Set(paramPurityBands, "true")
	}
	if req.ConcentrationBands {
		q.Set(paramConcentrationBands, "true")
	}
	return q
}

func parseFlag(q url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return false, nil
	}
	if raw == "on" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apierrors.ErrValidation(name, fmt.Sprintf("%s must be a boolean", name))
	}
	return v, nil
}

func parseTiers(q url.Values, name string, m quality.Metric) ([]quality.Tier, error) {
	var names []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	tiers, err := quality.ParseTiers(m, names)
	if err != nil {
		return nil, apierrors.ErrValidation(name, err.Error())
	}
	return tiers, nil
}

// RequestCtx decodes and validates the selection and stores it in the
// request context.
func RequestCtx(v RequestValidator, errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := ParseRequest(r.URL.Query())
			if err == nil {
				err = v.ValidateStruct(req)
			}
			if err != nil {
				errorHandler.HandleError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), requestCtxKey{}, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestFromContext returns the selection stored by RequestCtx.
func RequestFromContext(ctx context.Context) (services.Request, bool) {
	req, ok := ctx.Value(requestCtxKey{}).(services.Request)
	return req, ok
}

var errNoRequest = errors.New("dashboard request missing from context")
