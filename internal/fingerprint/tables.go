package fingerprint

// emojiTable has exactly 256 entries built from three fixed Unicode blocks
// (80 + 112 + 64). The table contents are a compatibility contract with the
// native apps; hash bytes index it directly.
var emojiTable = buildEmojiTable()

func buildEmojiTable() []rune {
	ranges := []struct{ lo, hi rune }{
		{0x1F330, 0x1F37F}, // plants and food
		{0x1F400, 0x1F46F}, // animals and people
		{0x1F500, 0x1F53F}, // symbols
	}
	table := make([]rune, 0, 256)
	for _, r := range ranges {
		for c := r.lo; c <= r.hi; c++ {
			table = append(table, c)
		}
	}
	return table
}

// wordList is the fixed 64-entry list behind the word fingerprint. Short,
// phonetically distinct words; order is a compatibility contract.
var wordList = []string{
	"acid", "amber", "anchor", "apple", "arrow", "atlas", "badge", "basil",
	"beacon", "birch", "bison", "blaze", "brick", "brook", "cabin", "cedar",
	"chalk", "cliff", "cloud", "cobalt", "coral", "crane", "delta", "drift",
	"eagle", "ember", "fable", "falcon", "fern", "flint", "frost", "gale",
	"glade", "grove", "harbor", "hazel", "heron", "ivory", "jade", "juniper",
	"kelp", "lagoon", "lark", "lotus", "maple", "meadow", "mesa", "noble",
	"ocean", "onyx", "otter", "pearl", "pine", "quartz", "raven", "reef",
	"sable", "slate", "summit", "thorn", "tundra", "violet", "willow", "zephyr",
}
