// Package signal names the business events that scheduled emails hang off.
// A signal name is also the lookup key for the EmailTemplate that renders
// the email.
package signal

type Name string

const (
	PersonsMerged                        Name = "persons_merged"
	InstructorBadgeAwarded               Name = "instructor_badge_awarded"
	InstructorConfirmedForWorkshop       Name = "instructor_confirmed_for_workshop"
	InstructorDeclinedFromWorkshop       Name = "instructor_declined_from_workshop"
	InstructorSignsUpForWorkshop         Name = "instructor_signs_up_for_workshop"
	AdminSignsInstructorUpForWorkshop    Name = "admin_signs_instructor_up_for_workshop"
	InstructorTrainingApproaching        Name = "instructor_training_approaching"
	InstructorTrainingCompletedNotBadged Name = "instructor_training_completed_not_badged"
	NewMembershipOnboarding              Name = "new_membership_onboarding"
	HostInstructorsIntroduction          Name = "host_instructors_introduction"
	RecruitHelpers                       Name = "recruit_helpers"
	PostWorkshop7Days                    Name = "post_workshop_7days"
	NewSelfOrganisedWorkshop             Name = "new_self_organised_workshop"
	InstructorTaskCreatedForWorkshop     Name = "instructor_task_created_for_workshop"
	AskForWebsite                        Name = "ask_for_website"
	MembershipQuarterly3Months           Name = "membership_quarterly_3_months"
	MembershipQuarterly6Months           Name = "membership_quarterly_6_months"
	MembershipQuarterly9Months           Name = "membership_quarterly_9_months"
)

// All lists every signal, in declaration order.
var All = []Name{
	PersonsMerged,
	InstructorBadgeAwarded,
	InstructorConfirmedForWorkshop,
	InstructorDeclinedFromWorkshop,
	InstructorSignsUpForWorkshop,
	AdminSignsInstructorUpForWorkshop,
	InstructorTrainingApproaching,
	InstructorTrainingCompletedNotBadged,
	NewMembershipOnboarding,
	HostInstructorsIntroduction,
	RecruitHelpers,
	PostWorkshop7Days,
	NewSelfOrganisedWorkshop,
	InstructorTaskCreatedForWorkshop,
	AskForWebsite,
	MembershipQuarterly3Months,
	MembershipQuarterly6Months,
	MembershipQuarterly9Months,
}

// CreateOnly lists signals that never update or cancel.
var CreateOnly = []Name{
	PersonsMerged,
	InstructorSignsUpForWorkshop,
	AdminSignsInstructorUpForWorkshop,
}

// Strings returns All as plain strings, for validation.
func Strings() []string {
	out := make([]string, len(All))
	for i, n := range All {
		out[i] = string(n)
	}
	return out
}

func (n Name) Valid() bool {
	for _, s := range All {
		if s == n {
			return true
		}
	}
	return false
}

func (n Name) String() string { return string(n) }

// Variant distinguishes the three channels sharing one signal name.
type Variant string

const (
	Create Variant = "create"
	Update Variant = "update"
	Cancel Variant = "cancel"
)
