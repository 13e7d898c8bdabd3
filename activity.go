package harnorm

import "strconv"

// Activity is a canonical activity code shared by every source.
type Activity int

// Canonical activity codes. The first six follow the standardized
// sit/stand/walk/upstairs/downstairs/run coding; the rest extend it for the
// activities only some datasets record.
const (
	Unknown Activity = -1

	Sit        Activity = 0
	Stand      Activity = 1
	Walk       Activity = 2
	Upstairs   Activity = 3
	Downstairs Activity = 4
	Run        Activity = 5

	Lay            Activity = 6
	Jump           Activity = 7
	WalkFast       Activity = 8
	ElevatorUp     Activity = 9
	ElevatorDown   Activity = 10
	WalkIndoor     Activity = 11
	WalkDistracted Activity = 12

	StandToSit Activity = 13
	SitToStand Activity = 14
	SitToLie   Activity = 15
	LieToSit   Activity = 16
	StandToLie Activity = 17
	LieToStand Activity = 18

	TalkSit      Activity = 19
	TalkStand    Activity = 20
	PickUp       Activity = 21
	PushUp       Activity = 22
	SitUp        Activity = 23
	WalkBackward Activity = 24
	WalkCircle   Activity = 25
	TableTennis  Activity = 26

	Typing      Activity = 27
	BrushTeeth  Activity = 28
	EatSoup     Activity = 29
	EatChips    Activity = 30
	EatPasta    Activity = 31
	Drink       Activity = 32
	EatSandwich Activity = 33
	Kick        Activity = 34
	Catch       Activity = 35
	Dribble     Activity = 36
	Write       Activity = 37
	Clap        Activity = 38
	FoldClothes Activity = 39
)

var activityNames = map[Activity]string{
	Unknown:        "unknown",
	Sit:            "sit",
	Stand:          "stand",
	Walk:           "walk",
	Upstairs:       "upstairs",
	Downstairs:     "downstairs",
	Run:            "run",
	Lay:            "lay",
	Jump:           "jump",
	WalkFast:       "walk fast",
	ElevatorUp:     "elevator up",
	ElevatorDown:   "elevator down",
	WalkIndoor:     "walk indoor",
	WalkDistracted: "walk distracted",
	StandToSit:     "stand to sit",
	SitToStand:     "sit to stand",
	SitToLie:       "sit to lie",
	LieToSit:       "lie to sit",
	StandToLie:     "stand to lie",
	LieToStand:     "lie to stand",
	TalkSit:        "talk sitting",
	TalkStand:      "talk standing",
	PickUp:         "pick up",
	PushUp:         "push up",
	SitUp:          "sit up",
	WalkBackward:   "walk backward",
	WalkCircle:     "walk circle",
	TableTennis:    "table tennis",
	Typing:         "typing",
	BrushTeeth:     "brush teeth",
	EatSoup:        "eat soup",
	EatChips:       "eat chips",
	EatPasta:       "eat pasta",
	Drink:          "drink",
	EatSandwich:    "eat sandwich",
	Kick:           "kick",
	Catch:          "catch",
	Dribble:        "dribble",
	Write:          "write",
	Clap:           "clap",
	FoldClothes:    "fold clothes",
}

// String returns the canonical activity name, or the numeric code when the
// value is outside the canonical vocabulary.
func (a Activity) String() string {
	if name, ok := activityNames[a]; ok {
		return name
	}
	return "activity(" + strconv.Itoa(int(a)) + ")"
}

// Valid reports whether a is part of the canonical vocabulary.
func (a Activity) Valid() bool {
	_, ok := activityNames[a]
	return ok
}
