package sim

// Per-minute health decay rates by triage and treatment stage. Ambulance care
// (ENROUTE) slows deterioration; hospital delivery stops it entirely.
const (
	redWaitingDecay    = 0.05
	redEnrouteDecay    = 0.02
	yellowWaitingDecay = 0.002
	yellowEnrouteDecay = 0.001
)

// yellowPromotionThreshold is the health below which a YELLOW patient is
// promoted to RED. Promotion is one-directional.
const yellowPromotionThreshold = 0.5

// healthEpsilon absorbs accumulated float error at the zero boundary, so a
// patient whose health is mathematically zero after repeated decay is dead.
const healthEpsilon = 1e-9

// TreatmentKind names an intervention applied to a patient.
type TreatmentKind string

const (
	// TreatmentPickup marks ambulance pickup; deterioration slows.
	TreatmentPickup TreatmentKind = "PICKUP"
	// TreatmentHospital marks hospital delivery; deterioration stops.
	TreatmentHospital TreatmentKind = "HOSPITAL"
)

// Patient models one casualty's health deterioration over time. Health runs
// from 1.0 (full) down to 0.0 (dead); Health == 0 if and only if !Alive.
// Each Patient is owned by exactly one Casualty and updated once per
// simulated minute by the owning engine.
type Patient struct {
	Triage          Triage          `json:"triage"`
	Health          float64         `json:"health"`
	TimeSinceInjury float64         `json:"time_since_injury"`
	Alive           bool            `json:"is_alive"`
	TreatmentStatus TreatmentStatus `json:"treatment_status"`
}

// NewPatient creates a patient at full health, except BLACK which
// initializes dead and stays terminal.
func NewPatient(triage Triage) *Patient {
	p := &Patient{
		Triage:          triage,
		Health:          1.0,
		Alive:           true,
		TreatmentStatus: TreatmentWaiting,
	}
	if triage == TriageBlack {
		p.Health = 0.0
		p.Alive = false
	}
	return p
}

// Update advances the patient by dtMinutes of simulated time. No-op once
// dead or delivered. Health is clamped at zero; reaching zero kills the
// patient. A YELLOW patient whose health drops below 0.5 is promoted to RED
// and never reverts.
func (p *Patient) Update(dtMinutes float64) {
	if !p.Alive {
		return
	}
	p.TimeSinceInjury += dtMinutes

	if p.TreatmentStatus == TreatmentDelivered {
		return
	}

	switch p.Triage {
	case TriageRed:
		switch p.TreatmentStatus {
		case TreatmentWaiting:
			p.Health -= redWaitingDecay * dtMinutes
		case TreatmentEnroute:
			p.Health -= redEnrouteDecay * dtMinutes
		}
	case TriageYellow:
		switch p.TreatmentStatus {
		case TreatmentWaiting:
			p.Health -= yellowWaitingDecay * dtMinutes
		case TreatmentEnroute:
			p.Health -= yellowEnrouteDecay * dtMinutes
		}
		if p.Health < yellowPromotionThreshold {
			p.Triage = TriageRed
		}
	case TriageGreen:
		// stable, no deterioration
	}

	if p.Health <= healthEpsilon {
		p.Health = 0
		p.Alive = false
	}
}

// ApplyTreatment moves the patient to the next treatment stage. Unknown
// kinds are ignored.
func (p *Patient) ApplyTreatment(kind TreatmentKind) {
	switch kind {
	case TreatmentPickup:
		p.TreatmentStatus = TreatmentEnroute
	case TreatmentHospital:
		p.TreatmentStatus = TreatmentDelivered
	}
}

// SurvivalProbability estimates the chance of survival given an expected
// transport time and the destination hospital's trauma level. This is an
// advisory score for policies and evaluation only; simulated deaths are
// driven solely by Update.
//
// Base rate by triage, minus 0.10 past the golden hour and a further 0.05
// per additional 30 minutes, plus 0.10 when a RED/YELLOW patient is headed
// to a Level I/II trauma center. Clamped to [0, 1].
func (p *Patient) SurvivalProbability(timeToHospitalMin float64, hospitalTraumaLevel int) float64 {
	var prob float64
	switch p.Triage {
	case TriageRed:
		prob = 0.7
	case TriageYellow:
		prob = 0.9
	case TriageGreen:
		prob = 0.98
	case TriageBlack:
		prob = 0.0
	default:
		prob = 0.5
	}

	if timeToHospitalMin > 60 {
		prob -= 0.10
		prob -= 0.05 * float64(int((timeToHospitalMin-60)/30))
	}

	if (p.Triage == TriageRed || p.Triage == TriageYellow) &&
		(hospitalTraumaLevel == 1 || hospitalTraumaLevel == 2) {
		prob += 0.10
	}

	if prob < 0 {
		return 0
	}
	if prob > 1 {
		return 1
	}
	return prob
}
