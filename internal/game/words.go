package game

// wordPairs holds the common word and the spy's decoy for each round theme.
var wordPairs = [][2]string{
	{"苹果", "梨"},
	{"火锅", "烧烤"},
	{"牛奶", "豆浆"},
	{"眼镜", "墨镜"},
	{"高铁", "地铁"},
	{"面条", "米线"},
	{"老虎", "狮子"},
	{"钢琴", "吉他"},
}

func pickWordPair() (word, spyWord string, err error) {
	idx, err := cryptoIntn(len(wordPairs))
	if err != nil {
		return "", "", err
	}
	return wordPairs[idx][0], wordPairs[idx][1], nil
}
