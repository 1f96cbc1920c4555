package status

//Status represents recording processing status
type Status int

const (
	// Pending - waiting for a worker
	Pending Status = iota + 1
	// Downloading raw audio from the messaging platform
	Downloading
	// Converting to the canonical audio format
	Converting
	// Uploading to the object store
	Uploading
	// Transcribing step
	Transcribing
	// Analyzing step
	Analyzing
	// Completed - final step
	Completed
	// Failed - final step, may be retried
	Failed
)

var (
	statusName = map[Status]string{Pending: "pending", Downloading: "downloading", Converting: "converting",
		Uploading: "uploading", Transcribing: "transcribing", Analyzing: "analyzing", Completed: "completed",
		Failed: "failed"}
	nameStatus = map[string]Status{"pending": Pending, "downloading": Downloading, "converting": Converting,
		"uploading": Uploading, "transcribing": Transcribing, "analyzing": Analyzing, "completed": Completed,
		"failed": Failed}

	transitions = map[Status]map[Status]bool{
		Pending:      {Downloading: true, Failed: true},
		Downloading:  {Converting: true, Failed: true},
		Converting:   {Uploading: true, Failed: true},
		Uploading:    {Transcribing: true, Failed: true},
		Transcribing: {Analyzing: true, Failed: true},
		Analyzing:    {Completed: true, Failed: true},
		Failed:       {Pending: true},
	}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// CanTransit checks the transition table
func CanTransit(from, to Status) bool {
	return transitions[from][to]
}

// InProgress returns true for the statuses owned by a running pipeline
func (st Status) InProgress() bool {
	return st >= Downloading && st <= Analyzing
}

// Terminal returns true for completed and failed
func (st Status) Terminal() bool {
	return st == Completed || st == Failed
}

// InProgressNames returns names of all in-progress statuses
func InProgressNames() []string {
	return []string{Downloading.String(), Converting.String(), Uploading.String(),
		Transcribing.String(), Analyzing.String()}
}
