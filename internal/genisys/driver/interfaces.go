package driver

import (
	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/signal"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

// IndicationApplier is the façade's merge callback (§6), invoked after
// decoding an IndicationData response.
type IndicationApplier interface {
	ApplyIndications(station genisys.Station, indications signal.Set)
}

// StatusSetter is the façade's status sink (§6), called on every
// status change derived from state via state.MapToStatus.
type StatusSetter interface {
	SetStatus(status state.Status)
}
