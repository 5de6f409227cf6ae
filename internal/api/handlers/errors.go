package handlers

import (
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/errors"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/idempotency"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
)

// toAppError maps domain errors onto transport errors. Anything the domain
// does not recognise becomes a 500 whose cause is only logged.
func toAppError(err error) *errors.AppError {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		stock      *domain.InsufficientStockError
		conflict   *domain.ConflictError
	)

	switch {
	case stderrors.As(err, &validation):
		if validation.Field == "" {
			return errors.ErrValidation(validation.Message)
		}
		return errors.ErrValidationWithFields(validation.Error(), map[string]string{
			validation.Field: validation.Message,
		})
	case stderrors.As(err, &notFound):
		return errors.ErrNotFoundWithID(notFound.Resource, notFound.ID)
	case stderrors.As(err, &stock):
		return errors.ErrInsufficientStock(stock.Error()).WithDetails(map[string]string{
			"productId": stock.ProductID,
			"sku":       stock.SKU,
			"available": strconv.FormatInt(stock.Available, 10),
			"requested": strconv.FormatInt(stock.Requested, 10),
		})
	case stderrors.As(err, &conflict):
		return errors.ErrConflict(conflict.Error()).WithDetail("field", conflict.Field)
	case stderrors.Is(err, domain.ErrConcurrentModification):
		// lock contention or a lost compare-and-set that outlived the retries
		return errors.ErrConflict("stock is being updated by another request, please retry").Wrap(err)
	case stderrors.Is(err, domain.ErrTransactionFailed):
		return errors.ErrTransactionFailed().Wrap(err)
	default:
		return errors.FromError(err)
	}
}

// respondError writes err. Lost races are retryable, so an Idempotency-Key
// used for the request stays free for the retry.
func respondError(c *gin.Context, responder *middleware.ErrorResponder, err error) {
	if stderrors.Is(err, domain.ErrConcurrentModification) {
		idempotency.MarkRetryable(c)
	}
	responder.RespondWithAppError(toAppError(err))
}
