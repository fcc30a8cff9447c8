package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// displayNames is the room-local alias pool. Names are drawn without
// replacement, so a room never seats two players under the same alias.
var displayNames = []string{
	"张三", "李四", "王五", "赵六", "钱七", "孙八",
	"周九", "吴十", "郑一", "王二", "刘一", "陈二",
	"杨三", "黄四", "周五", "吴六",
}

func cryptoIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// drawDisplayNames picks count unique names from the pool using a
// cryptographically sound partial shuffle.
func drawDisplayNames(count int) ([]string, error) {
	if count > len(displayNames) {
		return nil, fmt.Errorf("%w: need %d, pool has %d", ErrNamePoolExhausted, count, len(displayNames))
	}
	pool := make([]string, len(displayNames))
	copy(pool, displayNames)
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		idx, err := cryptoIntn(len(pool))
		if err != nil {
			return nil, err
		}
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out, nil
}

// drawSpyIndices picks spyCount distinct player indices in [0, playerCount).
func drawSpyIndices(playerCount, spyCount int) (map[int]bool, error) {
	indices := make([]int, playerCount)
	for i := range indices {
		indices[i] = i
	}
	picked := make(map[int]bool, spyCount)
	for i := 0; i < spyCount; i++ {
		idx, err := cryptoIntn(len(indices))
		if err != nil {
			return nil, err
		}
		picked[indices[idx]] = true
		indices = append(indices[:idx], indices[idx+1:]...)
	}
	return picked, nil
}
