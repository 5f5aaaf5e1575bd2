// Package matching - движок подбора пар кофейной рулетки:
// построение взвешенного графа допустимых пар, рандомизированный поиск
// разбиения на группы с минимальным штрафом, оценка качества групп
// и восстановление групп из сохранённых пар.
//
// Пакет не обращается к хранилищу: всё, что нужно, передаётся снимком.
package matching

// ══════════════════════════════════════════════════════════════════════════════
// PENALTY MODEL
// ══════════════════════════════════════════════════════════════════════════════

// RecentMatch - вклад одной недавней встречи пары.
type RecentMatch struct {
	Penalty float64
	DaysAgo int
}

// PenaltyInfo - разложение веса ребра (или запрещённой пары) на составляющие.
type PenaltyInfo struct {
	// PenaltyGroupCount - число общих штрафных групп.
	PenaltyGroupCount   int
	PenaltyGroupPenalty float64

	// NumberOfMatches - сколько раз пара уже встречалась за всю историю.
	NumberOfMatches        int
	NumberOfMatchesPenalty float64

	// RecentMatches - встречи за последний год, в порядке истории.
	RecentMatches []RecentMatch

	// IsForbidden - ребра нет, пара оказалась в одной группе вынужденно.
	IsForbidden      bool
	ForbiddenPenalty float64
}

// RecentPenalty возвращает сумму штрафов за недавние встречи.
func (p PenaltyInfo) RecentPenalty() float64 {
	var sum float64
	for _, r := range p.RecentMatches {
		sum += r.Penalty
	}
	return sum
}

// TotalPenalty возвращает сумму всех составляющих.
// Для существующего ребра совпадает с его весом.
func (p PenaltyInfo) TotalPenalty() float64 {
	return p.PenaltyGroupPenalty + p.NumberOfMatchesPenalty + p.RecentPenalty() + p.ForbiddenPenalty
}

// forbiddenPenaltyInfo описывает пару без ребра в графе.
func forbiddenPenaltyInfo(penalty float64) PenaltyInfo {
	return PenaltyInfo{IsForbidden: true, ForbiddenPenalty: penalty}
}
