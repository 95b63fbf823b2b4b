package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/api/middleware"
	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/packages"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

// ssePollInterval is how often the event stream re-reads job progress.
const ssePollInterval = 500 * time.Millisecond

type packageCreateRequest struct {
	Kind   string  `json:"kind" validate:"required"`
	ShopID *string `json:"shop_id,omitempty" validate:"omitempty,uuid4"`
}

// PackageCreate queues an installer generation job.
func PackageCreate(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}

		var payload packageCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := packages.CreateJobInput{
			Kind:        payload.Kind,
			RequestedBy: middleware.WalletFromContext(r.Context()),
		}
		if payload.ShopID != nil {
			shopID, err := uuid.Parse(*payload.ShopID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop id"))
				return
			}
			input.ShopID = &shopID
		}

		job, err := svc.CreateJob(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, job)
	}
}

// PackageGet returns the durable job record.
func PackageGet(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}

		jobID, err := validators.ParsePathUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.GetJob(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, job)
	}
}

// PackageEvents streams job progress as server-sent events. The stream ends
// once the job reaches a terminal status.
func PackageEvents(svc packages.Service, cfg config.PackagesConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}

		jobID, err := validators.ParsePathUUID(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		// Fail before committing to the stream if the job does not exist.
		update, err := svc.Progress(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		deadline := time.Now().Add(cfg.StreamTimeout)
		ticker := time.NewTicker(ssePollInterval)
		defer ticker.Stop()

		for {
			if err := writeSSE(w, flusher, update); err != nil {
				return
			}
			if update.Status.Terminal() {
				return
			}
			if time.Now().After(deadline) {
				if logg != nil {
					logg.Warn(r.Context(), "package event stream timed out")
				}
				return
			}

			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}

			update, err = svc.Progress(r.Context(), jobID)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "package progress read failed", err)
				}
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, update *packages.ProgressUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
