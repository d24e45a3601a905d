package sim

// LatLon is a WGS84 coordinate pair in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Triage classifies casualty severity per the START system.
type Triage string

const (
	TriageRed    Triage = "RED"    // immediate
	TriageYellow Triage = "YELLOW" // delayed
	TriageGreen  Triage = "GREEN"  // minor
	TriageBlack  Triage = "BLACK"  // deceased/expectant
)

// triageRank orders triage levels for dispatch priority; lower is more urgent.
var triageRank = map[Triage]int{
	TriageRed:    0,
	TriageYellow: 1,
	TriageGreen:  2,
	TriageBlack:  3,
}

// TreatmentStatus is the care stage a patient is currently in.
type TreatmentStatus string

const (
	TreatmentWaiting   TreatmentStatus = "WAITING"
	TreatmentEnroute   TreatmentStatus = "ENROUTE"
	TreatmentDelivered TreatmentStatus = "DELIVERED"
)

// CasualtyStatus is the engine-level lifecycle state of a casualty.
// CasualtyDelivered and CasualtyDeceased are terminal.
type CasualtyStatus string

const (
	CasualtyWaiting   CasualtyStatus = "WAITING"
	CasualtyAssigned  CasualtyStatus = "ASSIGNED"
	CasualtyEnroute   CasualtyStatus = "ENROUTE"
	CasualtyDelivered CasualtyStatus = "DELIVERED"
	CasualtyDeceased  CasualtyStatus = "DECEASED"
)

// AmbulanceStatus is the movement state of an ambulance. All non-IDLE states
// return to IDLE on arrival.
type AmbulanceStatus string

const (
	AmbulanceIdle             AmbulanceStatus = "IDLE"
	AmbulanceMovingToCasualty AmbulanceStatus = "MOVING_TO_CASUALTY"
	AmbulanceMovingToHospital AmbulanceStatus = "MOVING_TO_HOSPITAL"
	AmbulanceMovingToLocation AmbulanceStatus = "MOVING_TO_LOCATION"
	AmbulanceReturningToBase  AmbulanceStatus = "RETURNING_TO_BASE"
)

// AmbulanceType distinguishes hospital-stationed units from field units
// pre-positioned near the incident.
type AmbulanceType string

const (
	AmbulanceHospitalBased AmbulanceType = "HOSPITAL_BASED"
	AmbulanceFieldUnit     AmbulanceType = "FIELD_UNIT"
)

// UnknownBedCount is the sentinel for hospitals whose bed count is not known.
const UnknownBedCount = -1

// UnratedTraumaLevel is the trauma level assigned to hospitals without a
// trauma-center rating. Rated levels run 1 (highest capability) through 4.
const UnratedTraumaLevel = 5

// Hospital is a read-only catalog record. The engine never mutates hospitals.
type Hospital struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	BedCount    int     `json:"bed_count"`    // UnknownBedCount if unavailable
	TraumaLevel int     `json:"trauma_level"` // 1..5, 5 = unrated
	HasHelipad  bool    `json:"has_helipad"`
}

// Casualty is the engine-owned runtime state of one casualty. Triage records
// the classification at generation time; the live (possibly promoted) triage
// is Patient.Triage.
type Casualty struct {
	ID                  int
	Lat                 float64
	Lon                 float64
	Triage              Triage
	Patient             *Patient
	Status              CasualtyStatus
	AssignedAmbulanceID int // -1 when unassigned
	PickupTime          int // minute of pickup, -1 until picked up
	DeliveryTime        int // minute of delivery, -1 until delivered
}

// Ambulance is the engine-owned runtime state of one ambulance.
type Ambulance struct {
	ID                    int
	Lat                   float64
	Lon                   float64
	Status                AmbulanceStatus
	Type                  AmbulanceType
	BaseHospitalID        string // empty for field units
	PatientOnboard        int    // casualty ID, -1 when none
	DestinationHospitalID string // empty when no delivery in progress
	Target                LatLon
	TimeToTarget          float64 // minutes until arrival at Target
}

// clearTask resets an ambulance to IDLE with no task state.
func (a *Ambulance) clearTask() {
	a.Status = AmbulanceIdle
	a.PatientOnboard = -1
	a.DestinationHospitalID = ""
	a.Target = LatLon{}
	a.TimeToTarget = 0
}

// CasualtyView is the read-only casualty projection handed to policies.
// Triage reflects the live patient triage, including YELLOW→RED promotion.
type CasualtyView struct {
	ID                  int            `json:"id"`
	Lat                 float64        `json:"lat"`
	Lon                 float64        `json:"lon"`
	Triage              Triage         `json:"triage"`
	Health              float64        `json:"health"`
	IsAlive             bool           `json:"is_alive"`
	Status              CasualtyStatus `json:"status"`
	AssignedAmbulanceID int            `json:"assigned_ambulance_id"` // -1 when unassigned
}

// AmbulanceView is the read-only ambulance projection handed to policies.
type AmbulanceView struct {
	ID             int             `json:"id"`
	Lat            float64         `json:"lat"`
	Lon            float64         `json:"lon"`
	Status         AmbulanceStatus `json:"status"`
	Type           AmbulanceType   `json:"type"`
	BaseHospitalID string          `json:"base_hospital_id,omitempty"`
	PatientOnboard int             `json:"patient_onboard"` // -1 when none
}

// State is the full read-only snapshot a policy decides on. Policies must not
// retain or mutate it across calls; the engine rebuilds it every minute.
type State struct {
	Casualties       []CasualtyView  `json:"casualties"`
	Ambulances       []AmbulanceView `json:"ambulances"`
	Hospitals        []Hospital      `json:"hospitals"`
	CurrentTime      int             `json:"current_time"`
	IncidentLocation LatLon          `json:"incident_location"`
}
