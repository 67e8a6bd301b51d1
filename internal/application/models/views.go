package models

// JobWithCompany is a job with its company reference resolved.
type JobWithCompany struct {
	*Job
	Company *Company `json:"company"`
}

// AppliedJob is one entry of a candidate's application history.
type AppliedJob struct {
	*Application
	Job *JobWithCompany `json:"job"`
}

// Applicant is an application with the applicant profile resolved.
type Applicant struct {
	*Application
	Applicant *User `json:"applicant"`
}

// JobApplicants is the recruiter view of a job. Applications shadows the
// embedded id list with fully resolved records, newest first.
type JobApplicants struct {
	*Job
	Applications []*Applicant `json:"applications"`
}

// ApplyResult is returned by a successful apply.
type ApplyResult struct {
	Application *Application
	JobTitle    string
}
