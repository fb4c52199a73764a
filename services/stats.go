package services

// ListAverage 计算序列的算术平均值，空值（nil）先剔除。
// 过滤后为空时返回 0，0 是约定的哨兵值，不是错误。
func ListAverage(values []*float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Average ListAverage 的无空值版本
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
