package readers

import harnorm "github.com/lucasjlepore/har-normalizer"

// Label vocabularies, one per source. Tokens are matched case-sensitively
// after trimming.
var (
	kuharVocabulary = harnorm.MustVocabulary("kuhar", map[string]harnorm.Activity{
		"Stand":          harnorm.Stand,
		"Sit":            harnorm.Sit,
		"Talk-sit":       harnorm.TalkSit,
		"Talk-stand":     harnorm.TalkStand,
		"Stand-sit":      harnorm.StandToSit,
		"Lay":            harnorm.Lay,
		"Lay-stand":      harnorm.LieToStand,
		"Pick":           harnorm.PickUp,
		"Jump":           harnorm.Jump,
		"Push-up":        harnorm.PushUp,
		"Sit-up":         harnorm.SitUp,
		"Walk":           harnorm.Walk,
		"Walk-backwards": harnorm.WalkBackward,
		"Walk-circle":    harnorm.WalkCircle,
		"Run":            harnorm.Run,
		"Stair-up":       harnorm.Upstairs,
		"Stair-down":     harnorm.Downstairs,
		"Table-tennis":   harnorm.TableTennis,
	})

	motionSenseVocabulary = harnorm.MustVocabulary("motionsense", map[string]harnorm.Activity{
		"dws": harnorm.Downstairs,
		"ups": harnorm.Upstairs,
		"sit": harnorm.Sit,
		"std": harnorm.Stand,
		"wlk": harnorm.Walk,
		"jog": harnorm.Run,
	})

	// UCI HAPT numbers its activities 1..12 in labels.txt.
	uciVocabulary = harnorm.MustVocabulary("uci", map[string]harnorm.Activity{
		"1":  harnorm.Walk,
		"2":  harnorm.Upstairs,
		"3":  harnorm.Downstairs,
		"4":  harnorm.Sit,
		"5":  harnorm.Stand,
		"6":  harnorm.Lay,
		"7":  harnorm.StandToSit,
		"8":  harnorm.SitToStand,
		"9":  harnorm.SitToLie,
		"10": harnorm.LieToSit,
		"11": harnorm.StandToLie,
		"12": harnorm.LieToStand,
	})

	wisdmVocabulary = harnorm.MustVocabulary("wisdm", map[string]harnorm.Activity{
		"A": harnorm.Walk,
		"B": harnorm.Run,
		"C": harnorm.Upstairs,
		"D": harnorm.Sit,
		"E": harnorm.Stand,
		"F": harnorm.Typing,
		"G": harnorm.BrushTeeth,
		"H": harnorm.EatSoup,
		"I": harnorm.EatChips,
		"J": harnorm.EatPasta,
		"K": harnorm.Drink,
		"L": harnorm.EatSandwich,
		"M": harnorm.Kick,
		"O": harnorm.Catch,
		"P": harnorm.Dribble,
		"Q": harnorm.Write,
		"R": harnorm.Clap,
		"S": harnorm.FoldClothes,
	})

	realWorldVocabulary = harnorm.MustVocabulary("realworld", map[string]harnorm.Activity{
		"climbingdown": harnorm.Downstairs,
		"climbingup":   harnorm.Upstairs,
		"jumping":      harnorm.Jump,
		"lying":        harnorm.Lay,
		"running":      harnorm.Run,
		"sitting":      harnorm.Sit,
		"standing":     harnorm.Stand,
		"walking":      harnorm.Walk,
	})

	hiaacVocabulary = harnorm.MustVocabulary("hiaac", map[string]harnorm.Activity{
		"STANDING":            harnorm.Stand,
		"SITTING":             harnorm.Sit,
		"W_SPONT":             harnorm.Walk,
		"WALKING_SPONTANEOUS": harnorm.Walk,
		"UPSTAIRS":            harnorm.Upstairs,
		"DOWNSTAIRS":          harnorm.Downstairs,
		"W_FAST":              harnorm.WalkFast,
		"RUN":                 harnorm.Run,
		"ELEV_UP":             harnorm.ElevatorUp,
		"ELEVATOR_UP":         harnorm.ElevatorUp,
		"ELEV_DOWN":           harnorm.ElevatorDown,
		"ELEVATOR_DOWN":       harnorm.ElevatorDown,
		"W_IN_DOOR":           harnorm.WalkIndoor,
		"w_DISTRACTED":        harnorm.WalkDistracted,
		"-1":                  harnorm.Unknown,
	})

	// The first HIAAC export stores numeric label codes.
	hiaacV1Vocabulary = harnorm.MustVocabulary("hiaac-v1", map[string]harnorm.Activity{
		"0":  harnorm.Stand,
		"1":  harnorm.Sit,
		"2":  harnorm.Walk,
		"3":  harnorm.Upstairs,
		"4":  harnorm.Downstairs,
		"5":  harnorm.WalkFast,
		"6":  harnorm.Run,
		"7":  harnorm.ElevatorUp,
		"8":  harnorm.ElevatorDown,
		"9":  harnorm.WalkIndoor,
		"10": harnorm.WalkDistracted,
		"-1": harnorm.Unknown,
	})
)
