package models

// APMeasurement 扫描报文中的单个接入点测量值
type APMeasurement struct {
	BSSID string `json:"bssid"`
	RSSI  int    `json:"rssi"`
}

// ScanReport 设备通过 MQTT 上报的一次扫描结果
// 报文格式: {"aps":[{"bssid":"aa:bb:..","rssi":-50},...]}
type ScanReport struct {
	APs []APMeasurement `json:"aps"`
}

// Reading 将扫描报文转换为读数映射
// 同一 BSSID 出现多次时保留最强信号
func (r *ScanReport) Reading() AccessPointReading {
	reading := make(AccessPointReading, len(r.APs))
	for _, ap := range r.APs {
		if ap.BSSID == "" {
			continue
		}
		if existing, ok := reading[ap.BSSID]; !ok || ap.RSSI > existing {
			reading[ap.BSSID] = ap.RSSI
		}
	}
	return reading
}
