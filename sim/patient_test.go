package sim

import (
	"math"
	"testing"
)

func TestNewPatient_StartsAtFullHealth(t *testing.T) {
	p := NewPatient(TriageRed)
	if p.Health != 1.0 || !p.Alive {
		t.Errorf("new RED patient: health=%v alive=%v, want 1.0/true", p.Health, p.Alive)
	}
	if p.TreatmentStatus != TreatmentWaiting {
		t.Errorf("new patient treatment status: got %s, want WAITING", p.TreatmentStatus)
	}
}

func TestNewPatient_BlackStartsDead(t *testing.T) {
	p := NewPatient(TriageBlack)
	if p.Alive {
		t.Error("BLACK patient should start dead")
	}
	if p.Health != 0 {
		t.Errorf("BLACK patient health: got %v, want 0", p.Health)
	}
}

func TestUpdate_RedUntreatedDiesAtMinute20(t *testing.T) {
	// GIVEN an untreated RED patient decaying 0.05/min
	p := NewPatient(TriageRed)

	// THEN it survives through minute 19 and dies exactly at minute 20
	for minute := 1; minute <= 19; minute++ {
		p.Update(1.0)
		if !p.Alive {
			t.Fatalf("RED patient died at minute %d, want 20", minute)
		}
	}
	p.Update(1.0)
	if p.Alive {
		t.Error("RED patient still alive at minute 20")
	}
	if p.Health != 0 {
		t.Errorf("dead patient health: got %v, want 0", p.Health)
	}
}

func TestUpdate_AliveIffHealthPositive(t *testing.T) {
	p := NewPatient(TriageRed)
	prev := p.Health
	for i := 0; i < 30; i++ {
		p.Update(1.0)
		if p.Alive != (p.Health > 0) {
			t.Fatalf("minute %d: alive=%v but health=%v", i+1, p.Alive, p.Health)
		}
		if p.Health > prev {
			t.Fatalf("minute %d: health increased %v -> %v", i+1, prev, p.Health)
		}
		prev = p.Health
	}
}

func TestUpdate_YellowPromotesToRedAndNeverReverts(t *testing.T) {
	// GIVEN an untreated YELLOW patient decaying 0.002/min
	p := NewPatient(TriageYellow)

	// Health 0.502 after 249 minutes: still YELLOW
	p.Update(249)
	if p.Triage != TriageYellow {
		t.Fatalf("after 249 min: triage %s, want YELLOW (health %v)", p.Triage, p.Health)
	}

	// Health 0.48 after 260 minutes: promoted
	p.Update(11)
	if p.Triage != TriageRed {
		t.Fatalf("after 260 min: triage %s, want RED (health %v)", p.Triage, p.Health)
	}

	// Once RED, decay runs at the RED rate and the triage never reverts.
	healthBefore := p.Health
	p.Update(1)
	if p.Triage != TriageRed {
		t.Errorf("promoted patient reverted to %s", p.Triage)
	}
	if math.Abs((healthBefore-p.Health)-redWaitingDecay) > 1e-9 {
		t.Errorf("promoted patient decay: got %v/min, want %v", healthBefore-p.Health, redWaitingDecay)
	}
}

func TestUpdate_GreenIsStable(t *testing.T) {
	p := NewPatient(TriageGreen)
	p.Update(500)
	if p.Health != 1.0 || !p.Alive {
		t.Errorf("GREEN patient after 500 min: health=%v alive=%v, want 1.0/true", p.Health, p.Alive)
	}
}

func TestUpdate_PickupSlowsDecay(t *testing.T) {
	waiting := NewPatient(TriageRed)
	enroute := NewPatient(TriageRed)
	enroute.ApplyTreatment(TreatmentPickup)

	waiting.Update(10)
	enroute.Update(10)

	if enroute.Health <= waiting.Health {
		t.Errorf("enroute health %v should exceed waiting health %v", enroute.Health, waiting.Health)
	}
	if math.Abs(enroute.Health-(1.0-redEnrouteDecay*10)) > 1e-9 {
		t.Errorf("enroute health: got %v, want %v", enroute.Health, 1.0-redEnrouteDecay*10)
	}
}

func TestUpdate_DeliveryFreezesHealth(t *testing.T) {
	p := NewPatient(TriageRed)
	p.Update(5)
	p.ApplyTreatment(TreatmentHospital)
	frozen := p.Health

	p.Update(1000)

	if p.Health != frozen {
		t.Errorf("delivered patient health changed: %v -> %v", frozen, p.Health)
	}
	if !p.Alive {
		t.Error("delivered patient died")
	}
	// Time still accrues; only health is frozen.
	if p.TimeSinceInjury != 1005 {
		t.Errorf("time since injury: got %v, want 1005", p.TimeSinceInjury)
	}
}

func TestUpdate_DeadPatientIsInert(t *testing.T) {
	p := NewPatient(TriageBlack)
	p.Update(50)
	if p.TimeSinceInjury != 0 {
		t.Errorf("dead patient accrued time: %v", p.TimeSinceInjury)
	}
	if p.Health != 0 {
		t.Errorf("dead patient health changed: %v", p.Health)
	}
}

func TestSurvivalProbability(t *testing.T) {
	tests := []struct {
		name        string
		triage      Triage
		timeMin     float64
		traumaLevel int
		want        float64
	}{
		{"RED fast to level 1", TriageRed, 10, 1, 0.8},
		{"RED fast to level 3", TriageRed, 10, 3, 0.7},
		{"RED past golden hour", TriageRed, 70, 3, 0.6},
		{"RED 95 min to level 3", TriageRed, 95, 3, 0.55},
		{"YELLOW fast to level 2", TriageYellow, 10, 2, 1.0},
		{"GREEN fast", TriageGreen, 10, 3, 0.98},
		{"BLACK", TriageBlack, 10, 1, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPatient(tt.triage)
			got := p.SurvivalProbability(tt.timeMin, tt.traumaLevel)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SurvivalProbability(%v, %d) = %v, want %v", tt.timeMin, tt.traumaLevel, got, tt.want)
			}
		})
	}
}

func TestSurvivalProbability_Clamped(t *testing.T) {
	p := NewPatient(TriageRed)
	for _, timeMin := range []float64{0, 60, 200, 1000} {
		for _, level := range []int{1, 2, 3, 4, 5} {
			got := p.SurvivalProbability(timeMin, level)
			if got < 0 || got > 1 {
				t.Errorf("SurvivalProbability(%v, %d) = %v, out of [0,1]", timeMin, level, got)
			}
		}
	}
}
