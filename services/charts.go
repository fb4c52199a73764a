package services

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// 图表构建是纯函数：数据进，图片 URL 出。
// 输出的是 Google Image Charts 的 GET 接口参数。

const chartBaseURL = "http://chart.apis.google.com/chart"

// ChartSeries 一条曲线/一组柱：服务器展示名 + 数据点
type ChartSeries struct {
	Name   string
	Values []float64
}

// PerRunDurationBarGraph 每轮平均延迟的分组柱状图，一组柱对应一台服务器
func PerRunDurationBarGraph(series []ChartSeries) string {
	if len(series) == 0 {
		return ""
	}

	maxValue := 0.0
	sets := make([]string, 0, len(series))
	legends := make([]string, 0, len(series))
	for _, s := range series {
		points := make([]string, 0, len(s.Values))
		for _, v := range s.Values {
			if v > maxValue {
				maxValue = v
			}
			points = append(points, formatValue(v))
		}
		sets = append(sets, strings.Join(points, ","))
		legends = append(legends, s.Name)
	}
	if maxValue == 0 {
		maxValue = 1
	}

	params := url.Values{}
	params.Set("cht", "bvg")
	params.Set("chs", "720x415")
	params.Set("chd", "t:"+strings.Join(sets, "|"))
	params.Set("chds", fmt.Sprintf("0,%s", formatValue(maxValue)))
	params.Set("chdl", strings.Join(legends, "|"))
	params.Set("chxt", "y")
	params.Set("chxr", fmt.Sprintf("0,0,%s", formatValue(maxValue)))
	params.Set("chbh", "a")
	return chartBaseURL + "?" + params.Encode()
}

// MinimumDurationBarGraph 最快响应的水平柱状图，一台服务器一根柱
func MinimumDurationBarGraph(series []ChartSeries) string {
	if len(series) == 0 {
		return ""
	}

	maxValue := 0.0
	points := make([]string, 0, len(series))
	labels := make([]string, 0, len(series))
	for _, s := range series {
		v := 0.0
		if len(s.Values) > 0 {
			v = s.Values[0]
		}
		if v > maxValue {
			maxValue = v
		}
		points = append(points, formatValue(v))
		labels = append(labels, s.Name)
	}
	if maxValue == 0 {
		maxValue = 1
	}

	// 水平柱状图的轴标签顺序与数据相反
	reversed := make([]string, len(labels))
	for i, l := range labels {
		reversed[len(labels)-1-i] = l
	}

	params := url.Values{}
	params.Set("cht", "bhs")
	params.Set("chs", "720x415")
	params.Set("chd", "t:"+strings.Join(points, ","))
	params.Set("chds", fmt.Sprintf("0,%s", formatValue(maxValue)))
	params.Set("chxt", "x,y")
	params.Set("chxr", fmt.Sprintf("0,0,%s", formatValue(maxValue)))
	params.Set("chxl", "1:|"+strings.Join(reversed, "|"))
	return chartBaseURL + "?" + params.Encode()
}

// DistributionLineGraph 耗时的累积分布曲线。
// scale 截断横轴（毫秒），尾部极端值不画。曲线按展示名稳定排序。
func DistributionLineGraph(series []ChartSeries, scale float64) string {
	if len(series) == 0 {
		return ""
	}
	if scale <= 0 {
		scale = 200
	}

	ordered := make([]ChartSeries, len(series))
	copy(ordered, series)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	sets := make([]string, 0, len(ordered)*2)
	legends := make([]string, 0, len(ordered))
	for _, s := range ordered {
		xs, ys := distributionPoints(s.Values, scale)
		sets = append(sets, strings.Join(xs, ","), strings.Join(ys, ","))
		legends = append(legends, s.Name)
	}

	params := url.Values{}
	params.Set("cht", "lxy")
	params.Set("chs", "720x415")
	params.Set("chd", "t:"+strings.Join(sets, "|"))
	params.Set("chdl", strings.Join(legends, "|"))
	params.Set("chxt", "x,y")
	params.Set("chxr", fmt.Sprintf("0,0,%s|1,0,100", formatValue(scale)))
	return chartBaseURL + "?" + params.Encode()
}

// distributionPoints 把一条耗时序列变成累积分布采样点，
// x 归一化到 0-100（相对 scale），y 是百分位
func distributionPoints(values []float64, scale float64) (xs, ys []string) {
	if len(values) == 0 {
		return []string{"0"}, []string{"0"}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// 最多取 25 个采样点，够画曲线了
	step := len(sorted) / 25
	if step < 1 {
		step = 1
	}

	for i := 0; i < len(sorted); i += step {
		v := sorted[i]
		if v > scale {
			break
		}
		x := v / scale * 100
		y := float64(i+1) / float64(len(sorted)) * 100
		xs = append(xs, formatValue(x))
		ys = append(ys, formatValue(y))
	}
	if len(xs) == 0 {
		return []string{"0"}, []string{"0"}
	}
	return xs, ys
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
