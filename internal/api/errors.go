package api

import (
	"net/http"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/domain"
)

// Problem is the JSON body returned for every failed allocation call. It
// satisfies huma.StatusError, so huma uses Status for the response code.
type Problem struct {
	Status  int         `json:"status"`
	Code    domain.Kind `json:"code"`
	Message string      `json:"message"`
}

func (p *Problem) Error() string  { return p.Message }
func (p *Problem) GetStatus() int { return p.Status }

var statusByKind = map[domain.Kind]int{
	domain.KindAlreadyAssigned:    http.StatusConflict,
	domain.KindSlotTaken:          http.StatusConflict,
	domain.KindCapacityExceeded:   http.StatusConflict,
	domain.KindCycleDetected:      http.StatusConflict,
	domain.KindCrossEventParent:   http.StatusConflict,
	domain.KindHasChildren:        http.StatusConflict,
	domain.KindHasLiveAssignments: http.StatusConflict,
	domain.KindTypeInUse:          http.StatusConflict,
	domain.KindShapeMismatch:      http.StatusUnprocessableEntity,
	domain.KindEventMismatch:      http.StatusUnprocessableEntity,
	domain.KindNodeNotFound:       http.StatusNotFound,
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindInvalidInput:       http.StatusBadRequest,
	domain.KindStorageUnavailable: http.StatusServiceUnavailable,
}

// problemFor maps an engine error to its HTTP form.
func problemFor(err error) *Problem {
	ae := contract.NewAllocationError(err)
	status, ok := statusByKind[ae.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Problem{Status: status, Code: ae.Code, Message: ae.Message}
}
