package game

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// WordSource 提供每回合的秘密词语
type WordSource interface {
	NextWord() string
}

// 词库文件缺失时的兜底词表
var defaultWords = []string{
	"苹果", "香蕉", "汽车", "飞机", "房子",
	"太阳", "月亮", "星星", "猫", "狗",
}

// WordList 是内置的词语来源，避免同一场游戏内重复出词
// 词池耗尽后重置已用集合继续循环
type WordList struct {
	mu    sync.Mutex
	words []string
	used  map[string]struct{}
}

func NewWordList(words []string) *WordList {
	if len(words) == 0 {
		words = defaultWords
	}

	return &WordList{
		words: words,
		used:  make(map[string]struct{}),
	}
}

// LoadWords 从文件按行加载词库，失败时返回空表
func LoadWords(path string) []string {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		zap.L().Warn(
			"加载词库失败，使用内置词表",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil
	}
	defer f.Close()

	var words []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w != "" {
			words = append(words, w)
		}
	}

	zap.L().Info(
		"词库加载完成",
		zap.String("path", path),
		zap.Int("count", len(words)),
	)

	return words
}

// LoadWordList 加载词库文件并构建词语来源
func LoadWordList(path string) *WordList {
	return NewWordList(LoadWords(path))
}

func (wl *WordList) NextWord() string {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	available := make([]string, 0, len(wl.words))
	for _, w := range wl.words {
		if _, ok := wl.used[w]; !ok {
			available = append(available, w)
		}
	}

	if len(available) == 0 {
		wl.used = make(map[string]struct{})
		available = wl.words
	}

	if len(available) == 0 {
		return "画画"
	}

	word := available[rand.Intn(len(available))]
	wl.used[word] = struct{}{}

	return word
}
