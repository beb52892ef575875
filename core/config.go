package core

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env  string `yaml:"env" env:"ENV" env-default:"local"`
	HTTP struct {
		Host string `yaml:"host" env:"HTTP_HOST" env-default:"127.0.0.1"`
		Port string `yaml:"port" env:"HTTP_PORT" env-default:"4001"`
	} `yaml:"http"`
	OpenRouter struct {
		ApiKey    string `yaml:"api_key" env:"OPENROUTER_API_KEY" env-default:""`
		BaseURL   string `yaml:"base_url" env-default:"https://openrouter.ai/api/v1"`
		Model     string `yaml:"model" env-default:"qwen/qwen2.5-vl-32b-instruct:free"`
		MaxTokens int    `yaml:"max_tokens" env-default:"300"`
		Referer   string `yaml:"referer" env-default:"http://localhost:5173"`
		Title     string `yaml:"title" env-default:"stock-buddy"`
	} `yaml:"openrouter"`
	ImgBB struct {
		ApiKey    string `yaml:"api_key" env:"IMGBB_API_KEY" env-default:""`
		UploadURL string `yaml:"upload_url" env-default:"https://api.imgbb.com/1/upload"`
	} `yaml:"imgbb"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	} `yaml:"telegram"`
}

var instance *Config
var once sync.Once

func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}

func MustLoad(path string) *Config {
	conf, err := GetConfig(path)
	if err != nil {
		log.Fatal(err)
	}
	return conf
}
