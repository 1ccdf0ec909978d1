package scaffold

import "strings"

const (
	appNamePlaceholder = "@@CHART_APP_NAME@@"
	acrNamePlaceholder = "@@ACR_NAME@@"
)

const chartTemplate = `description: Simple Helm Chart For Integration Tests
name: @@CHART_APP_NAME@@-app
version: 0.1.0`

const valuesTemplate = `# Default values for test app.
# This is a YAML-formatted file.
# Declare variables to be passed into your templates.

image:
  repository: @@ACR_NAME@@.azurecr.io/@@CHART_APP_NAME@@
  tag: latest
  pullPolicy: IfNotPresent

serviceName: "service"

service:
  type: ClusterIP
  port: 80
  containerPort: 8080
`

// MainTemplate is the deployment and service manifest of the generated chart.
const MainTemplate = `---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: {{ .Chart.Name }}
spec:
  replicas: {{ .Values.replicaCount }}
  selector:
    matchLabels:
      app: {{ .Values.serviceName }}
  minReadySeconds: {{ .Values.minReadySeconds }}
  strategy:
    type: RollingUpdate
    rollingUpdate:
      maxUnavailable: 1
      maxSurge: 1
  template:
    metadata:
      labels:
        app: {{ .Values.serviceName }}
    spec:
      containers:
        - name: {{ .Values.serviceName }}
          image: "{{ .Values.image.repository }}:{{ .Values.image.tag }}"
          imagePullPolicy: {{ .Values.image.pullPolicy }}
          ports:
            - containerPort: {{ .Values.service.containerPort }}
---
apiVersion: v1
kind: Service
metadata:
  name: {{ .Values.serviceName }}
spec:
  ports:
    - port: {{ .Values.service.port }}
      protocol: TCP
  selector:
    app: {{ .Values.serviceName }}
`

func ChartTemplate(appName string) string {
	return strings.ReplaceAll(chartTemplate, appNamePlaceholder, appName)
}

func ValuesTemplate(appName, acrName string) string {
	r := strings.NewReplacer(appNamePlaceholder, appName, acrNamePlaceholder, acrName)
	return r.Replace(valuesTemplate)
}
