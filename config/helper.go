package config

// Section 绑定指定节到 T，section 为空时绑定整个配置
//
// 示例：
//
//	opts, err := config.Section[ServerOptions](cfg, "server")
func Section[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

// SectionOrDefault 与 Section 相同，但键不存在时返回 def 而不是错误。
// def 作为绑定的起点，配置中缺失的字段保留 def 的值。
func SectionOrDefault[T any](cfg Configuration, section string, def T) (T, error) {
	t := def
	if err := cfg.Bind(section, &t); err != nil {
		if IsNotFound(err) {
			return def, nil
		}
		return def, err
	}
	return t, nil
}
