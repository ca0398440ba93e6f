package domain

import "strings"

// Hand 依抽牌順序保存的一手牌。只允許 append。
type Hand []Card

// evaluate 以 A=11 加總，超過 21 時逐張把 A 改算 1 點。
// 回傳最佳點數與仍以 11 計算的 A 張數。
func (h Hand) evaluate() (total int, softAces int) {
	for _, c := range h {
		total += c.Value
		if c.IsAce() {
			softAces++
		}
	}
	for total > 21 && softAces > 0 {
		total -= 10
		softAces--
	}
	return total, softAces
}

// Value 手牌最佳點數
func (h Hand) Value() int {
	total, _ := h.evaluate()
	return total
}

// IsSoft 是否仍有 A 以 11 點計算
func (h Hand) IsSoft() bool {
	_, soft := h.evaluate()
	return soft > 0
}

// IsBust 點數是否超過 21
func (h Hand) IsBust() bool {
	return h.Value() > 21
}

// String 以空白分隔列出點數，例如 "A 10 K"
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Clone 回傳獨立的副本，避免外部改寫內部手牌
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	copy(out, h)
	return out
}
